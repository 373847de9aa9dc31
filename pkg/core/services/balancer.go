package services

import (
	"sort"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/ports"
)

// GreedyBalancer 默认均衡器实现: 电导贪心最佳适配 (Greedy Best-Fit by Conductance)
//
// 这是 min-max 分组和问题（一般情形 NP-hard）的贪心启发式:
// 不保证最优，但确定性、O(N log N + N·series)，且因为每颗电芯都流向
// 当前电导总和最小的模组，极差在经验上保持很小。
// 不做回溯或局部搜索细化，换取可预测的行为。
type GreedyBalancer struct{}

// NewGreedyBalancer 创建默认均衡器
func NewGreedyBalancer() ports.Balancer {
	return &GreedyBalancer{}
}

// bin 模组累加器: 平铺数组即可，无需任何动态分派或隐藏状态
type bin struct {
	totalConductance float64
	members          []domain.Cell
}

// Balance 实现 ports.Balancer 接口
//
// 算法:
//  1. 按电导 g = 1/R 降序排序，相同按 ID 升序。
//     先处理高电导（低电阻）的电芯，把最大的电阻离群值尽早摊开到各模组，
//     避免容量约束在尾部强迫劣质放置。
//  2. 每颗电芯分配给未满且当前 totalConductance 最小的模组，
//     并列时取序号最小者（保证相同输入产出逐位一致的结果）。
//  3. 合成电阻 = parallel / totalConductance（并联电阻公式，成员等权）。
func (b *GreedyBalancer) Balance(included []domain.Cell, series, parallel int) ([]domain.Module, error) {
	if series <= 0 {
		return nil, &domain.InvalidParameterError{Name: "series", Value: series}
	}
	if parallel <= 0 {
		return nil, &domain.InvalidParameterError{Name: "parallel", Value: parallel}
	}
	if len(included) != series*parallel {
		return nil, &domain.ShapeMismatchError{
			Expected: series * parallel,
			Actual:   len(included),
		}
	}

	// Step 1: 电导降序（即电阻升序），ID 升序打破平局
	sorted := make([]domain.Cell, len(included))
	copy(sorted, included)
	sort.Slice(sorted, func(i, j int) bool {
		gi, gj := sorted[i].Conductance(), sorted[j].Conductance()
		if gi != gj {
			return gi > gj
		}
		return sorted[i].ID < sorted[j].ID
	})

	// Step 2: 贪心分配
	bins := make([]bin, series)
	for i := range bins {
		bins[i].members = make([]domain.Cell, 0, parallel)
	}

	for _, c := range sorted {
		best := -1
		for i := range bins {
			if len(bins[i].members) >= parallel {
				continue
			}
			if best == -1 || bins[i].totalConductance < bins[best].totalConductance {
				best = i
			}
		}
		// 总供给 == 总需求，且从不向已满模组分配，best 必然命中
		bins[best].members = append(bins[best].members, c)
		bins[best].totalConductance += c.Conductance()
	}

	// Step 3: 封装模组输出
	modules := make([]domain.Module, series)
	for i := range bins {
		members := bins[i].members
		domain.SortCellsByID(members)
		modules[i] = domain.Module{
			Index:              i + 1,
			Members:            members,
			CombinedResistance: float64(parallel) / bins[i].totalConductance,
		}
	}

	return modules, nil
}
