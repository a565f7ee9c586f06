package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"
	"github.com/theirongolddev/opsdash/internal/tui/components"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (a App) renderTimeTab(cw int) string {
	t := theme.Active
	r := a.report
	var b strings.Builder

	wk := r.Week
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Tracked (week)", Value: cli.FormatHours(wk.TotalHours), Delta: fmt.Sprintf("%d entries", wk.EntryCount)},
		{Label: "Billable", Value: cli.FormatHours(wk.BillableHours), Delta: cli.FormatPercent(wk.BillableRatio)},
		{Label: "Target", Value: fmt.Sprintf("%.0fh", wk.TargetHours), Delta: cli.FormatPct(wk.CompletionRate) + " reached",
			Tone: weekTone(wk.CompletionRate)},
	}, cw))
	b.WriteString("\n")

	b.WriteString(components.ContentCard(
		fmt.Sprintf("Week of %s", wk.WeekStart.Format("Jan 2")),
		components.BarChart(wk.Daily[:], weekdayLabels, t.Blue, components.CardInnerWidth(cw), 6, "h"),
		cw,
	))
	b.WriteString("\n")

	innerW := components.CardInnerWidth(cw)
	cellW := max((innerW-4)/24, 1)
	var body strings.Builder
	body.WriteString(components.Heatmap(*r.Heatmap, pipeline.Tier, cellW))
	body.WriteString("\n")
	body.WriteString(components.HeatLegend())
	if day, hr, ok := pipeline.PeakCell(*r.Heatmap); ok {
		dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		body.WriteString(dim.Render(fmt.Sprintf("   peak %s %02d:00", cli.FormatDayOfWeek(day), hr)))
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("When you work (%s tracked)", cli.FormatHours(r.Heatmap.Total()/60)),
		body.String(), cw))
	return b.String()
}

func weekTone(completion float64) components.Tone {
	switch {
	case completion >= 100:
		return components.TonePositive
	case completion >= 50:
		return components.ToneWarn
	default:
		return components.ToneNeutral
	}
}
