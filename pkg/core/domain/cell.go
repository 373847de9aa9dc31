package domain

import "sort"

// ExclusionReason 定义电芯被剔除的原因标签
type ExclusionReason string

const (
	// ReasonOutlierHigh 高阻离群: 电阻在排序序列的高端被修剪
	ReasonOutlierHigh ExclusionReason = "outlier-high"

	// ReasonOutlierLow 低阻离群: 电阻在排序序列的低端被修剪
	ReasonOutlierLow ExclusionReason = "outlier-low"

	// ReasonInvalidResistance 无效电阻: 非正值，不具备分组资格
	// 策略: 不作为硬错误拒绝，而是带原因进入剔除区（可追溯）
	ReasonInvalidResistance ExclusionReason = "invalid-resistance"
)

// Cell 代表一颗经过电气测试的电芯
// ID 为序列号（来自测试台账的 Serial Number 列），用于确定性排序与展示
type Cell struct {
	ID         string  `json:"id"`
	Resistance float64 `json:"resistance"` // DCIR 内阻 [Ohm]，分组依据
	Voltage    float64 `json:"voltage"`    // OCV 开路电压 [V]，仅透传用于报告
}

// Conductance 返回电导 (1/R)
// 前提: Resistance > 0，调用方需先经 Eligible 检查
func (c Cell) Conductance() float64 {
	return 1 / c.Resistance
}

// Eligible 判断电芯是否具备分组资格
// 不变量: 只有电阻为正的电芯才能参与选配
func (c Cell) Eligible() bool {
	return c.Resistance > 0
}

// ExcludedCell 代表一颗被“隔离”剔除的电芯
// 当电芯未通过选配（离群修剪或无效值）时，会被封装为此对象进入剔除列表
type ExcludedCell struct {
	Cell   `json:"cell"`
	Reason ExclusionReason `json:"reason"` // 剔除原因
}

// SelectionResult 选配结果: 入选与剔除的完整划分
// 不变量: len(Included) + len(Excluded) == 输入总数
// Included 与 Excluded 均按 ID 升序排列，保证下游处理的稳定性
type SelectionResult struct {
	Included []Cell         `json:"included"`
	Excluded []ExcludedCell `json:"excluded"`
}

// SortCellsByID 按序列号升序原地排序
func SortCellsByID(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].ID < cells[j].ID
	})
}

// SortExcludedByID 按序列号升序原地排序剔除列表
func SortExcludedByID(cells []ExcludedCell) {
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].ID < cells[j].ID
	})
}
