package services

import (
	"sort"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/ports"
)

// TrimSelector 默认选配器实现: 对称修剪 (Symmetric Outlier Trimming)
// 按电阻排序后从两端剔除最极端的记录，保留中间的连续切片。
// 修剪只发生在两端，绝不从内部挖洞，因此剔除区的电阻要么 >= 入选最大值，
// 要么 <= 入选最小值。
type TrimSelector struct{}

// NewTrimSelector 创建默认选配器
func NewTrimSelector() ports.Selector {
	return &TrimSelector{}
}

// Select 实现 ports.Selector 接口
//
// 策略说明:
//  1. 非正电阻的记录不作为硬错误，先行进入剔除区 (invalid-resistance)，
//     与离群修剪同一条出口，统一可追溯。
//  2. 余量 excess 为奇数时，多出的一颗从高端修剪 (outlier-high)。
//     高内阻是更常见的不良方向，且该拆分必须确定性地二选一。
func (s *TrimSelector) Select(cells []domain.Cell, targetCount int) (*domain.SelectionResult, error) {
	if targetCount <= 0 {
		return nil, &domain.InvalidParameterError{Name: "targetCount", Value: targetCount}
	}

	// Step 1: 资格筛选
	eligible := make([]domain.Cell, 0, len(cells))
	var excluded []domain.ExcludedCell
	for _, c := range cells {
		if !c.Eligible() {
			excluded = append(excluded, domain.ExcludedCell{
				Cell:   c,
				Reason: domain.ReasonInvalidResistance,
			})
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) < targetCount {
		return nil, &domain.InsufficientCellsError{
			Required:  targetCount,
			Available: len(eligible),
		}
	}

	// Step 2: 按电阻升序排序，电阻相同按 ID 升序（确定性打破平局）
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Resistance != eligible[j].Resistance {
			return eligible[i].Resistance < eligible[j].Resistance
		}
		return eligible[i].ID < eligible[j].ID
	})

	// Step 3: 对称修剪
	// 低端修剪 floor(excess/2)，高端修剪 ceil(excess/2)
	excess := len(eligible) - targetCount
	trimLow := excess / 2
	trimHigh := excess - trimLow

	for _, c := range eligible[:trimLow] {
		excluded = append(excluded, domain.ExcludedCell{Cell: c, Reason: domain.ReasonOutlierLow})
	}
	for _, c := range eligible[len(eligible)-trimHigh:] {
		excluded = append(excluded, domain.ExcludedCell{Cell: c, Reason: domain.ReasonOutlierHigh})
	}

	// 中间切片即入选集（复制，避免与排序缓冲共享底层数组）
	included := make([]domain.Cell, targetCount)
	copy(included, eligible[trimLow:len(eligible)-trimHigh])

	// Step 4: 结果按 ID 升序，保证下游处理稳定
	domain.SortCellsByID(included)
	domain.SortExcludedByID(excluded)

	return &domain.SelectionResult{
		Included: included,
		Excluded: excluded,
	}, nil
}
