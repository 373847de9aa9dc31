package ports

import (
	"context"
	"io"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// UniversalIngestor 万能插头 (Ingestion Layer)
// 职责: 接收测试台输出的任意格式成绩单 (CSV, JSON)，统一转换为领域电芯记录。
type UniversalIngestor interface {
	// IngestStream 接入数据流，逐条解析并推送到下游
	IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error)

	// IngestBatch 接入批量文件，format 指定格式标识 ("csv", "json")
	IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error)
}

// Selector 选配器接口
// 职责: 从 N 颗测量电芯中确定性地收敛到恰好 targetCount 颗，
// 对称修剪电阻最极端的记录，并对每颗被剔除的电芯打上原因标签。
type Selector interface {
	// Select 执行选配
	// 返回的 Included 恰好 targetCount 颗; Included 与 Excluded 均按 ID 升序
	Select(cells []domain.Cell, targetCount int) (*domain.SelectionResult, error)
}

// Balancer 均衡器接口
// 职责: 将恰好 series × parallel 颗入选电芯划分为 series 个模组，
// 每组 parallel 颗，使各模组的并联合成电阻尽可能接近。
type Balancer interface {
	// Balance 执行分组
	// 前置条件: len(included) == series × parallel（违反返回 ShapeMismatchError）
	Balance(included []domain.Cell, series, parallel int) ([]domain.Module, error)
}

// CellGrouper 电芯选配服务 (Core Capability)
// 职责:
// A. 资格校验 (非正电阻隔离)
// B. 对称修剪 (离群剔除)
// C. 贪心均衡 (电导最小堆位分配)
// D. 整包统计 (极差评估)
type CellGrouper interface {
	// GroupCells 对一批测量电芯执行完整的选配+均衡流程
	// 每次调用是输入与参数的纯函数，调用之间互不影响
	GroupCells(ctx context.Context, cells []domain.Cell, series, parallel int) (*domain.GroupingResult, error)
}
