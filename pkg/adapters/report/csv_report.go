package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// CsvReporter 将分组结果导出为装配工位可直接消费的 CSV
// 每行一条分配记录: module, serial, dcir_ohm, ocv_v
// 剔除电芯的 module 列为 "excluded:<reason>"
type CsvReporter struct{}

// NewCsvReporter 创建 CSV 导出器
func NewCsvReporter() *CsvReporter {
	return &CsvReporter{}
}

// Render 输出分配 CSV
func (r *CsvReporter) Render(w io.Writer, result *domain.GroupingResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"module", "serial", "dcir_ohm", "ocv_v"}); err != nil {
		return err
	}

	for _, m := range result.Modules {
		for _, c := range m.Members {
			row := []string{
				strconv.Itoa(m.Index),
				c.ID,
				strconv.FormatFloat(c.Resistance, 'g', -1, 64),
				strconv.FormatFloat(c.Voltage, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	for _, e := range result.Excluded {
		row := []string{
			fmt.Sprintf("excluded:%s", e.Reason),
			e.ID,
			strconv.FormatFloat(e.Resistance, 'g', -1, 64),
			strconv.FormatFloat(e.Voltage, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
