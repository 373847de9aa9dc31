package domain

// PackStatistics 整包统计量（只读派生值）
// 均衡完成后一次性计算，不做增量维护
type PackStatistics struct {
	Min           float64 `json:"min"`            // 最小合成电阻 [Ohm]
	Max           float64 `json:"max"`            // 最大合成电阻 [Ohm]
	Avg           float64 `json:"avg"`            // 平均合成电阻 [Ohm]
	Spread        float64 `json:"spread"`         // 绝对极差 Max - Min [Ohm]
	SpreadPercent float64 `json:"spread_percent"` // 百分比极差 100 * Spread / Avg
}

// Summarize 计算整包统计量（纯函数）
// 防御性保护: 平均值为零时返回 DegenerateInputError
// （在 Resistance > 0 的不变量下不可能发生，但必须显式守卫）
func Summarize(modules []Module) (PackStatistics, error) {
	if len(modules) == 0 {
		return PackStatistics{}, &DegenerateInputError{Reason: "no modules to summarize"}
	}

	stats := PackStatistics{
		Min: modules[0].CombinedResistance,
		Max: modules[0].CombinedResistance,
	}

	var sum float64
	for _, m := range modules {
		r := m.CombinedResistance
		if r < stats.Min {
			stats.Min = r
		}
		if r > stats.Max {
			stats.Max = r
		}
		sum += r
	}

	stats.Avg = sum / float64(len(modules))
	stats.Spread = stats.Max - stats.Min

	if stats.Avg == 0 {
		return PackStatistics{}, &DegenerateInputError{Reason: "zero average combined resistance"}
	}
	stats.SpreadPercent = 100 * stats.Spread / stats.Avg

	return stats, nil
}
