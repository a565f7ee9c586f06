package components

import (
	"strings"
	"testing"

	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	if len(got) != 3 || got[0] != 4 || got[1] != 3 || got[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v, want [4 3 3]", got)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("Test setup error: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Errorf("Joined height should match tallest card: got %d, want %d", len(lines), tallLines)
	}

	for i, line := range lines {
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("Line %d has no ANSI codes; padding is unstyled", i)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	row := MetricCardRow([]Metric{
		{Label: "Revenue", Value: "$3,000.00", Tone: TonePositive},
		{Label: "Profit", Value: "-$20.00", Delta: "vs target", Tone: ToneNegative},
		{Label: "Hours", Value: "12.5h"},
	}, 90)

	if w := lipgloss.Width(row); w != 90 {
		t.Errorf("MetricCardRow width = %d, want 90", w)
	}
}

func TestTabVisualWidth(t *testing.T) {
	tab := Tab{Name: "Time", Key: 't', KeyPos: 0}
	if got := TabVisualWidth(tab, false); got != 6 {
		t.Errorf("TabVisualWidth = %d, want 6", got)
	}
	odd := Tab{Name: "Misc", Key: 'x', KeyPos: -1}
	if got := TabVisualWidth(odd, false); got != 9 {
		t.Errorf("TabVisualWidth with suffix = %d, want 9", got)
	}
	if got := TabVisualWidth(odd, true); got != 6 {
		t.Errorf("active TabVisualWidth = %d, want 6", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('d'); got != 4 {
		t.Errorf("TabIdxByKey('d') = %d, want 4", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestHeatmapShape(t *testing.T) {
	theme.SetActive("terminal")
	var h model.Heatmap
	h[1][9] = 60 // Monday 09:00

	out := Heatmap(h, func(m float64) model.HeatTier {
		if m > 0 {
			return model.HeatPeak
		}
		return model.HeatEmpty
	}, 2)

	lines := strings.Split(out, "\n")
	if len(lines) != 8 {
		t.Fatalf("Heatmap lines = %d, want 8 (7 days + axis)", len(lines))
	}
	if !strings.Contains(lines[0], "Mon") || !strings.Contains(lines[6], "Sun") {
		t.Errorf("rows should run Monday to Sunday: first=%q last=%q", lines[0], lines[6])
	}
	if w := lipgloss.Width(lines[0]); w != 4+24*2 {
		t.Errorf("row width = %d, want %d", w, 4+24*2)
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{1500, "$", "$1.5k"},
		{2000, "", "2k"},
		{3_000_000, "$", "$3M"},
		{40, "", "40"},
		{0.5, "", "0.50"},
	}
	for _, tt := range tests {
		if got := formatChartLabel(tt.v, tt.unit); got != tt.want {
			t.Errorf("formatChartLabel(%v, %q) = %q, want %q", tt.v, tt.unit, got, tt.want)
		}
	}
}

func TestColorForProgress(t *testing.T) {
	theme.SetActive("flexoki-dark")
	th := theme.Active
	if ColorForProgress(80) != th.Green {
		t.Error("80% should be green")
	}
	if ColorForProgress(10) != th.Red {
		t.Error("10% should be red")
	}
}
