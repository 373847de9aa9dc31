package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// CsvUniversalIngestor 实现 UniversalIngestor 接口
// 专门处理测试台输出的 CSV 成绩单
// 列约定来自电芯测试工装: Serial Number / OCV (V) / DCIR (Ohm)，
// 其余列 (R0 及充放电分量) 容忍并忽略
type CsvUniversalIngestor struct {
	downstream func(context.Context, []domain.Cell) error
}

// NewCsvUniversalIngestor 创建 CSV 摄入器实例
func NewCsvUniversalIngestor(downstream func(context.Context, []domain.Cell) error) *CsvUniversalIngestor {
	return &CsvUniversalIngestor{
		downstream: downstream,
	}
}

// IngestStream 实现 UniversalIngestor.IngestStream
// 逐行读取 CSV 流；单行解析失败只计入 Failed，绝不中断整个导入
//
// 重复序列号策略: 后行覆盖前行 (Last Wins)。
// 测试工装在复测时会删除旧行重写文件，文件尾部出现的重复行即复测结果，
// 被覆盖的旧行计入 Skipped。
func (c *CsvUniversalIngestor) IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error) {
	reader := csv.NewReader(stream)
	// 允许变长字段，避免因某些行缺少非必填字段报错
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &domain.IngestionResult{}

	// 1. Read Header
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int)
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	if err := validateCsvHeaders(headerMap); err != nil {
		return nil, err
	}

	// 2. Read Records
	// 去重需要看完整个文件，因此先聚合再推送下游
	var order []string
	bySerial := make(map[string]domain.Cell)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Total++
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("csv read error at line %d: %v", result.Total+1, err)) // +1 for header
			continue
		}

		result.Total++
		cell, err := c.parseRecord(record, headerMap)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", result.Total+1, err))
			continue
		}

		if _, seen := bySerial[cell.ID]; seen {
			// Last Wins: 旧行作废
			result.Skipped++
		} else {
			order = append(order, cell.ID)
			result.Success++
		}
		bySerial[cell.ID] = cell
	}

	// 3. Flush downstream in batches
	const batchSize = 100
	var buffer []domain.Cell
	for _, id := range order {
		buffer = append(buffer, bySerial[id])
		if len(buffer) >= batchSize {
			if err := c.downstream(ctx, buffer); err != nil {
				return result, err
			}
			buffer = buffer[:0]
		}
	}
	if len(buffer) > 0 {
		if err := c.downstream(ctx, buffer); err != nil {
			return result, err
		}
	}

	return result, nil
}

// IngestBatch 实现 UniversalIngestor.IngestBatch
func (c *CsvUniversalIngestor) IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error) {
	if strings.ToLower(format) != "csv" {
		return nil, fmt.Errorf("unsupported format for CsvIngestor: %s", format)
	}
	return c.IngestStream(ctx, file)
}

func validateCsvHeaders(headerMap map[string]int) error {
	required := []string{"serial number", "dcir (ohm)"}
	for _, req := range required {
		if _, ok := headerMap[req]; !ok {
			return fmt.Errorf("missing required csv header: %s", req)
		}
	}
	return nil
}

func (c *CsvUniversalIngestor) parseRecord(record []string, headerMap map[string]int) (domain.Cell, error) {
	// Helper to get value gracefully
	get := func(col string) string {
		if idx, ok := headerMap[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	// 1. Serial Number
	serial := get("serial number")
	if serial == "" {
		return domain.Cell{}, fmt.Errorf("serial number is empty")
	}

	// 2. DCIR (分组依据)
	// 注意: 这里只要求可解析；非正值照常入域，由选配器按
	// invalid-resistance 策略隔离，保证剔除原因可追溯
	dcirStr := get("dcir (ohm)")
	dcir, err := strconv.ParseFloat(dcirStr, 64)
	if err != nil {
		return domain.Cell{}, fmt.Errorf("invalid dcir value: %q", dcirStr)
	}

	// 3. OCV (可选，仅透传)
	var ocv float64
	if ocvStr := get("ocv (v)"); ocvStr != "" {
		ocv, err = strconv.ParseFloat(ocvStr, 64)
		if err != nil {
			return domain.Cell{}, fmt.Errorf("invalid ocv value: %q", ocvStr)
		}
	}

	return domain.Cell{
		ID:         serial,
		Resistance: dcir,
		Voltage:    ocv,
	}, nil
}
