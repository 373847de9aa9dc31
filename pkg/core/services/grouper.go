package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/ports"
)

// CoreGrouper 核心电芯选配服务
// 实现了 CellGrouper 接口: 选配 -> 均衡 -> 统计 的单趟流水线
type CoreGrouper struct {
	selector ports.Selector
	balancer ports.Balancer
	repo     ports.RunRepository // 可选运行留痕仓储
	log      *slog.Logger
}

// GrouperOption 定义配置选项函数 (Functional Option Pattern)
type GrouperOption func(*CoreGrouper)

// WithRunRepository 设置运行留痕仓储依赖
// 不设置时核心以无状态模式工作，结果不落库
func WithRunRepository(repo ports.RunRepository) GrouperOption {
	return func(g *CoreGrouper) {
		g.repo = repo
	}
}

// WithLogger 设置结构化日志
func WithLogger(log *slog.Logger) GrouperOption {
	return func(g *CoreGrouper) {
		if log != nil {
			g.log = log
		}
	}
}

// WithSelector 替换选配策略（默认对称修剪）
func WithSelector(s ports.Selector) GrouperOption {
	return func(g *CoreGrouper) {
		g.selector = s
	}
}

// WithBalancer 替换均衡策略（默认电导贪心）
func WithBalancer(b ports.Balancer) GrouperOption {
	return func(g *CoreGrouper) {
		g.balancer = b
	}
}

// NewCoreGrouper 初始化选配服务
// 使用 Functional Options 模式进行配置
func NewCoreGrouper(opts ...GrouperOption) ports.CellGrouper {
	// 默认配置
	g := &CoreGrouper{
		selector: NewTrimSelector(),
		balancer: NewGreedyBalancer(),
		log:      slog.Default(),
		repo:     nil,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GroupCells 对一批测量电芯执行完整的选配+均衡流程
// 整条流水线是输入与参数的确定性纯函数；仓储写入是唯一的副作用，
// 且写入失败不影响已算出的结果（记日志，不报错）。
func (g *CoreGrouper) GroupCells(ctx context.Context, cells []domain.Cell, series, parallel int) (*domain.GroupingResult, error) {
	// 参数先于一切处理被校验
	if series <= 0 {
		return nil, &domain.InvalidParameterError{Name: "series", Value: series}
	}
	if parallel <= 0 {
		return nil, &domain.InvalidParameterError{Name: "parallel", Value: parallel}
	}

	target := series * parallel

	// Step A: 选配（资格筛选 + 对称修剪）
	sel, err := g.selector.Select(cells, target)
	if err != nil {
		return nil, fmt.Errorf("selection failed: %w", err)
	}

	g.log.Debug("selection complete",
		"input", len(cells),
		"included", len(sel.Included),
		"excluded", len(sel.Excluded))

	// Step B: 均衡分组
	modules, err := g.balancer.Balance(sel.Included, series, parallel)
	if err != nil {
		return nil, fmt.Errorf("balancing failed: %w", err)
	}

	// Step C: 整包统计
	stats, err := domain.Summarize(modules)
	if err != nil {
		return nil, fmt.Errorf("statistics failed: %w", err)
	}

	result := &domain.GroupingResult{
		RunID:     ulid.Make().String(),
		Series:    series,
		Parallel:  parallel,
		Modules:   modules,
		Excluded:  sel.Excluded,
		Stats:     stats,
		CreatedAt: time.Now().UTC(),
	}

	g.log.Info("grouping complete",
		"run_id", result.RunID,
		"series", series,
		"parallel", parallel,
		"spread_pct", stats.SpreadPercent,
		"excluded", len(result.Excluded))

	// Step D: 运行留痕（可选）
	if g.repo != nil {
		if err := g.repo.SaveRun(ctx, result); err != nil {
			g.log.Error("failed to persist grouping run",
				"run_id", result.RunID,
				"error", err)
		}
	}

	return result, nil
}
