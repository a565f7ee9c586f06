package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var heatDays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func heatColor(tier model.HeatTier) lipgloss.Color {
	t := theme.Active
	switch tier {
	case model.HeatLow:
		return t.AccentDim
	case model.HeatMedium:
		return t.Cyan
	case model.HeatHigh:
		return t.Accent
	case model.HeatPeak:
		return t.AccentBright
	default:
		return t.SurfaceHover
	}
}

// Heatmap renders a weekday by hour grid, Monday first. cellW is the width of
// one hour column; tier maps a cell's minutes to its display bucket.
func Heatmap(h model.Heatmap, tier func(float64) model.HeatTier, cellW int) string {
	t := theme.Active
	cellW = max(cellW, 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var b strings.Builder
	for row := range 7 {
		day := (row + 1) % 7 // Monday first over a Sunday-indexed grid
		b.WriteString(labelStyle.Render(heatDays[row]))
		b.WriteString(space)
		for hr := range 24 {
			style := lipgloss.NewStyle().Foreground(heatColor(tier(h[day][hr]))).Background(t.Surface)
			b.WriteString(style.Render(strings.Repeat("█", cellW)))
		}
		b.WriteString("\n")
	}

	// Hour axis every 6 hours.
	axis := make([]byte, 24*cellW)
	for i := range axis {
		axis[i] = ' '
	}
	for hr := 0; hr < 24; hr += 6 {
		lbl := fmt.Sprintf("%d", hr)
		copy(axis[hr*cellW:], lbl)
	}
	b.WriteString(axisStyle.Render("    " + strings.TrimRight(string(axis), " ")))
	return b.String()
}

// HeatLegend renders the tier swatches from empty to peak.
func HeatLegend() string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(dim.Render("less "))
	for tier := model.HeatEmpty; tier <= model.HeatPeak; tier++ {
		b.WriteString(lipgloss.NewStyle().Foreground(heatColor(tier)).Background(t.Surface).Render("█"))
	}
	b.WriteString(dim.Render(" more"))
	return b.String()
}
