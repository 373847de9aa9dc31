package ports

import (
	"context"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// RunSummary 运行摘要（列表查询用，不携带成员明细）
type RunSummary struct {
	RunID         string
	Series        int
	Parallel      int
	CellCount     int
	ExcludedCount int
	SpreadPercent float64
	CreatedAt     string // RFC3339
}

// RunRepository 选配运行留痕仓储接口
// 职责: 持久化每次完成的选配运行（模组构成、剔除列表、统计量），
// 供产线追溯“这一包当时是怎么配的”。核心在无仓储模式下照常工作。
type RunRepository interface {
	// SaveRun 保存一次完整运行（事务性: 运行头 + 成员 + 剔除一起落库）
	SaveRun(ctx context.Context, result *domain.GroupingResult) error

	// ListRuns 按创建时间倒序返回最近的运行摘要
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// GetRun 按 RunID 重建完整的运行结果
	GetRun(ctx context.Context, runID string) (*domain.GroupingResult, error)
}
