package domain

import "time"

// Module 代表一个并联模组（分组结果）
// 生命周期: 均衡开始时创建为空，填满 parallel 颗后固定，不再合并或重开
type Module struct {
	Index              int     `json:"index"`               // 1-based 序号
	Members            []Cell  `json:"members"`             // 恰好 parallel 颗，按 ID 升序
	CombinedResistance float64 `json:"combined_resistance"` // 并联合成电阻 = parallel / Σ(1/R_i)
}

// MemberIDs 返回成员序列号列表（已按 ID 升序）
// 供报告层的模组摘要行使用
func (m Module) MemberIDs() []string {
	ids := make([]string, 0, len(m.Members))
	for _, c := range m.Members {
		ids = append(ids, c.ID)
	}
	return ids
}

// GroupingResult 一次完整选配+均衡的产出
// 每次运行是输入表与参数的纯函数，运行之间不共享任何状态
type GroupingResult struct {
	RunID     string         `json:"run_id"` // ULID，用于运行留痕与查询
	Series    int            `json:"series"`
	Parallel  int            `json:"parallel"`
	Modules   []Module       `json:"modules"`
	Excluded  []ExcludedCell `json:"excluded"`
	Stats     PackStatistics `json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
}
