package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

// TextReporter 将选配结果渲染为产线可读的文本报告
// 内容: 逐模组成员清单、模组摘要表、整包统计、剔除列表
type TextReporter struct{}

// NewTextReporter 创建文本报告渲染器
func NewTextReporter() *TextReporter {
	return &TextReporter{}
}

// Render 输出完整报告
func (r *TextReporter) Render(w io.Writer, result *domain.GroupingResult) error {
	fmt.Fprintf(w, "Cell Grouping Report\n")
	fmt.Fprintf(w, "Run       : %s\n", result.RunID)
	fmt.Fprintf(w, "Created   : %s\n", result.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Pack shape: %dS%dP (%d cells)\n\n", result.Series, result.Parallel, result.Series*result.Parallel)

	// 1. 逐模组成员清单
	for _, m := range result.Modules {
		fmt.Fprintf(w, "Module %d  (combined %.3f mOhm)\n", m.Index, m.CombinedResistance*1000)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  Serial\tDCIR (mOhm)\tOCV (V)")
		for _, c := range m.Members {
			fmt.Fprintf(tw, "  %s\t%.3f\t%.4f\n", c.ID, c.Resistance*1000, c.Voltage)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	// 2. 模组摘要表
	fmt.Fprintln(w, "Summary")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  Module\tCombined (mOhm)\tCells\tMembers")
	for _, m := range result.Modules {
		fmt.Fprintf(tw, "  %d\t%.3f\t%d\t%s\n",
			m.Index, m.CombinedResistance*1000, len(m.Members), strings.Join(m.MemberIDs(), ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	// 3. 整包统计
	s := result.Stats
	fmt.Fprintf(w, "\nPack statistics\n")
	fmt.Fprintf(w, "  Min combined    : %.3f mOhm\n", s.Min*1000)
	fmt.Fprintf(w, "  Max combined    : %.3f mOhm\n", s.Max*1000)
	fmt.Fprintf(w, "  Avg combined    : %.3f mOhm\n", s.Avg*1000)
	fmt.Fprintf(w, "  Spread          : %.3f mOhm\n", s.Spread*1000)
	fmt.Fprintf(w, "  Spread percent  : %.2f %%\n", s.SpreadPercent)

	// 4. 剔除列表
	fmt.Fprintf(w, "\nExcluded cells (%d)\n", len(result.Excluded))
	if len(result.Excluded) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  Serial\tDCIR (mOhm)\tOCV (V)\tReason")
	for _, e := range result.Excluded {
		fmt.Fprintf(tw, "  %s\t%.3f\t%.4f\t%s\n", e.ID, e.Resistance*1000, e.Voltage, e.Reason)
	}
	return tw.Flush()
}
