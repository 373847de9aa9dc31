package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// JsonUniversalIngestor 实现 UniversalIngestor 接口
// 专门处理 JSON 格式的成绩单（测试台导出或上游系统推送）
type JsonUniversalIngestor struct {
	// downstream 是数据流向的下一站
	// 在实际系统中，这里通常是 CellGrouper.GroupCells 之前的聚合缓冲
	downstream func(context.Context, []domain.Cell) error
}

func NewJsonUniversalIngestor(downstream func(context.Context, []domain.Cell) error) *JsonUniversalIngestor {
	return &JsonUniversalIngestor{
		downstream: downstream,
	}
}

// IngestStream 实现 UniversalIngestor.IngestStream
// 支持 JSON 数组 [...] 与单对象 {...} 两种输入
func (j *JsonUniversalIngestor) IngestStream(ctx context.Context, stream io.Reader) (*domain.IngestionResult, error) {
	// 使用 bufio.Reader 预读首字节，避免消耗 Token
	bufStream := bufio.NewReader(stream)
	head, err := bufStream.Peek(1)
	if err != nil {
		if err == io.EOF {
			return &domain.IngestionResult{}, nil
		}
		return nil, fmt.Errorf("failed to peek start token: %w", err)
	}

	decoder := json.NewDecoder(bufStream)
	result := &domain.IngestionResult{}

	// Case 1: JSON Array [...]
	if head[0] == '[' {
		// Consume '['
		if _, err := decoder.Token(); err != nil {
			return nil, err
		}
		return j.decodeArray(ctx, decoder, result)
	}

	// Case 2: Single JSON Object {...}
	if head[0] == '{' {
		var p rawPayload
		if err := decoder.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode single object: %w", err)
		}

		result.Total++
		cell, err := j.mapToDomain(p)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("mapping error: %v", err))
			return result, nil
		}

		if err := j.downstream(ctx, []domain.Cell{cell}); err != nil {
			return nil, err
		}
		result.Success++
		return result, nil
	}

	return nil, fmt.Errorf("unexpected JSON format (expected '[' or '{', got '%c')", head[0])
}

// IngestBatch 实现 UniversalIngestor.IngestBatch
func (j *JsonUniversalIngestor) IngestBatch(ctx context.Context, file io.Reader, format string) (*domain.IngestionResult, error) {
	if format != "json" {
		return nil, fmt.Errorf("unsupported format for JsonIngestor: %s", format)
	}
	return j.IngestStream(ctx, file)
}

// --- Internal Parsing Logic ---

// rawPayload 定义接收的扁平化 JSON 结构
// 适配多种字段命名风格 (serial / serial_number)
type rawPayload struct {
	Serial       string      `json:"serial"`
	SerialNumber string      `json:"serial_number"`
	Dcir         json.Number `json:"dcir_ohm"` // 使用 json.Number 避免精度丢失
	Ocv          json.Number `json:"ocv_v"`
}

func (j *JsonUniversalIngestor) decodeArray(ctx context.Context, decoder *json.Decoder, result *domain.IngestionResult) (*domain.IngestionResult, error) {
	var buffer []domain.Cell
	const batchSize = 100 // 简单的批处理缓冲

	for decoder.More() {
		var p rawPayload
		if err := decoder.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode error inside array: %w", err)
		}

		result.Total++
		cell, err := j.mapToDomain(p)
		if err != nil {
			// 策略：记录错误并继续
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("item %d skipped: %v", result.Total, err))
			continue
		}

		buffer = append(buffer, cell)
		result.Success++

		// Flush buffer if full
		if len(buffer) >= batchSize {
			if err := j.downstream(ctx, buffer); err != nil {
				return result, err
			}
			buffer = buffer[:0] // clear
		}
	}

	// Flush remaining
	if len(buffer) > 0 {
		if err := j.downstream(ctx, buffer); err != nil {
			return result, err
		}
	}

	// Consume closing ']'
	if _, err := decoder.Token(); err != nil {
		return result, err
	}
	return result, nil
}

// mapToDomain 将扁平 JSON 转换为领域对象
func (j *JsonUniversalIngestor) mapToDomain(p rawPayload) (domain.Cell, error) {
	// 1. Serial
	serial := p.Serial
	if serial == "" {
		serial = p.SerialNumber
	}
	if serial == "" {
		return domain.Cell{}, fmt.Errorf("serial is empty")
	}

	// 2. DCIR
	dcir, err := p.Dcir.Float64()
	if err != nil {
		return domain.Cell{}, fmt.Errorf("invalid dcir value: %v", p.Dcir)
	}

	// 3. OCV (可选)
	var ocv float64
	if p.Ocv != "" {
		ocv, err = p.Ocv.Float64()
		if err != nil {
			return domain.Cell{}, fmt.Errorf("invalid ocv value: %v", p.Ocv)
		}
	}

	return domain.Cell{
		ID:         serial,
		Resistance: dcir,
		Voltage:    ocv,
	}, nil
}
