package viz

import (
	"testing"
)

func TestSuggestNeedsAtLeastTwoRows(t *testing.T) {
	if got := Suggest([]string{"facility_id", "error_count"}, [][]any{{"fac-1", 3}}, "errors"); got != nil {
		t.Fatalf("Suggest() = %+v, want nil", got)
	}
	if got := Suggest(nil, nil, ""); got != nil {
		t.Fatalf("Suggest() = %+v, want nil", got)
	}
}

func TestSuggestLineChartForTrendQuestions(t *testing.T) {
	columns := []string{"log_date", "total_disconnections"}
	rows := [][]any{
		{"2026-08-01", 5},
		{"2026-08-02", 8},
		{"2026-08-03", 2},
	}
	got := Suggest(columns, rows, "show disconnection trend over time")
	if got == nil || got.Type != ChartLine {
		t.Fatalf("Suggest() = %+v, want line chart", got)
	}
	if got.XKey != "log_date" {
		t.Fatalf("XKey = %q", got.XKey)
	}
	if len(got.YKeys) != 1 || got.YKeys[0] != "total_disconnections" {
		t.Fatalf("YKeys = %v", got.YKeys)
	}
}

func TestSuggestPieChartForSmallDistributions(t *testing.T) {
	columns := []string{"model_status", "status_cnt"}
	rows := [][]any{
		{"offline", 12},
		{"offline", 9},
		{"degraded", 12},
		{"offline", 4},
	}
	got := Suggest(columns, rows, "breakdown of disconnect reasons")
	if got == nil || got.Type != ChartPie {
		t.Fatalf("Suggest() = %+v, want pie chart", got)
	}
	if got.NameKey != "model_status" || got.ValueKey != "status_cnt" {
		t.Fatalf("keys = %q/%q", got.NameKey, got.ValueKey)
	}
}

func TestSuggestBarChartForCategoricalComparison(t *testing.T) {
	columns := []string{"facility_name", "error_count", "critical_count"}
	rows := [][]any{
		{"North Range", 30, 4},
		{"North Range", 22, 1},
		{"South Range", 30, 4},
		{"North Range", 9, 0},
	}
	got := Suggest(columns, rows, "which facilities had the most errors")
	if got == nil || got.Type != ChartBar {
		t.Fatalf("Suggest() = %+v, want bar chart", got)
	}
	if got.XKey != "facility_name" {
		t.Fatalf("XKey = %q", got.XKey)
	}
	if len(got.YKeys) != 2 {
		t.Fatalf("YKeys = %v", got.YKeys)
	}
}

func TestSuggestCapsSeriesAtThree(t *testing.T) {
	columns := []string{"facility_name", "a", "b", "c", "d"}
	rows := [][]any{
		{"North Range", 1, 2, 3, 4},
		{"North Range", 5, 6, 7, 8},
		{"South Range", 1, 2, 3, 4},
		{"North Range", 5, 6, 7, 8},
	}
	got := Suggest(columns, rows, "compare facilities")
	if got == nil {
		t.Fatal("expected a suggestion")
	}
	if len(got.YKeys) != 3 {
		t.Fatalf("YKeys = %v, want 3 series", got.YKeys)
	}
}

func TestSuggestTableFallback(t *testing.T) {
	columns := []string{"message"}
	rows := [][]any{
		{"sensor offline"},
		{"calibration drift"},
		{"radar fault"},
	}
	if got := Suggest(columns, rows, "recent error messages"); got != nil {
		t.Fatalf("Suggest() = %+v, want nil for text-only data", got)
	}
}

func TestChartTitleTruncatesAndStripsFiller(t *testing.T) {
	got := chartTitle("show me the top errors please", "Data")
	if got != "Top Errors" {
		t.Fatalf("chartTitle() = %q", got)
	}
	if got := chartTitle("", "Data"); got != "Data View" {
		t.Fatalf("chartTitle() = %q", got)
	}
}
