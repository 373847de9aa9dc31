package domain

import "fmt"

// 错误分类 (Error Taxonomy)
// 所有错误同步上报给调用方，携带足够的上下文（计数、参数名）以便一次定位。
// 本核心是确定性纯计算，任何错误重试都只会复现，因此没有重试语义。

// InvalidParameterError 非法参数: series / parallel / targetCount 非正
// 在任何处理开始之前被拒绝
type InvalidParameterError struct {
	Name  string
	Value int
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %d (must be positive)", e.Name, e.Value)
}

// InsufficientCellsError 可用电芯不足: 合格电芯数少于 series × parallel
type InsufficientCellsError struct {
	Required  int // 目标数量 series × parallel
	Available int // 合格电芯数量
}

func (e *InsufficientCellsError) Error() string {
	return fmt.Sprintf("insufficient cells: need %d, have %d eligible (short by %d)",
		e.Required, e.Available, e.Shortfall())
}

// Shortfall 返回缺口数量
func (e *InsufficientCellsError) Shortfall() int {
	return e.Required - e.Available
}

// ShapeMismatchError 形状不匹配: 入选数量 != series × parallel
// 在选配器行为正确的前提下不可达，属于内部不变量被破坏，视为致命错误
type ShapeMismatchError struct {
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: expected %d cells, got %d", e.Expected, e.Actual)
}

// DegenerateInputError 退化输入: 统计阶段的防御性守卫（如零平均值）
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input: %s", e.Reason)
}
