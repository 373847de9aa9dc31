package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/renjie/cellmatch-core/pkg/adapters/report"
	"github.com/renjie/cellmatch-core/pkg/core/domain"
)

func sampleResult() *domain.GroupingResult {
	return &domain.GroupingResult{
		RunID:    "01JTESTRUN0000000000000000",
		Series:   2,
		Parallel: 2,
		Modules: []domain.Module{
			{
				Index: 1,
				Members: []domain.Cell{
					{ID: "AA01", Resistance: 0.0152, Voltage: 3.6512},
					{ID: "AA04", Resistance: 0.0161, Voltage: 3.6489},
				},
				CombinedResistance: 0.0078,
			},
			{
				Index: 2,
				Members: []domain.Cell{
					{ID: "AA02", Resistance: 0.0158, Voltage: 3.6498},
					{ID: "AA03", Resistance: 0.0155, Voltage: 3.6533},
				},
				CombinedResistance: 0.0078,
			},
		},
		Excluded: []domain.ExcludedCell{
			{Cell: domain.Cell{ID: "AA05", Resistance: 0.0452, Voltage: 3.6011}, Reason: domain.ReasonOutlierHigh},
		},
		Stats: domain.PackStatistics{
			Min: 0.0078, Max: 0.0078, Avg: 0.0078,
			Spread: 0, SpreadPercent: 0,
		},
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestTextReporterRender(t *testing.T) {
	var buf bytes.Buffer
	if err := report.NewTextReporter().Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Pack shape: 2S2P (4 cells)",
		"Module 1",
		"Module 2",
		"AA01",
		"Spread percent",
		"Excluded cells (1)",
		"outlier-high",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n---\n%s", want, out)
		}
	}
}

func TestTextReporterNoExcluded(t *testing.T) {
	result := sampleResult()
	result.Excluded = nil

	var buf bytes.Buffer
	if err := report.NewTextReporter().Render(&buf, result); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(none)") {
		t.Error("expected (none) marker for empty excluded list")
	}
}

func TestCsvReporterRender(t *testing.T) {
	var buf bytes.Buffer
	if err := report.NewCsvReporter().Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header + 4 assignments + 1 excluded
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "module,serial,dcir_ohm,ocv_v" {
		t.Errorf("header mismatch: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,AA01,") {
		t.Errorf("first assignment mismatch: %s", lines[1])
	}
	if !strings.HasPrefix(lines[5], "excluded:outlier-high,AA05,") {
		t.Errorf("excluded row mismatch: %s", lines[5])
	}
}
