package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/tui/components"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	r := a.report
	var b strings.Builder

	var spent, expected float64
	for _, e := range r.Expenses {
		spent += e.Amount
	}
	for _, m := range r.CashFlow {
		expected += m.ExpectedIncome
	}

	revDelta := ""
	if n := len(r.Revenue); n >= 2 {
		revDelta = cli.FormatDelta(r.Revenue[n-1].Revenue, r.Revenue[n-2].Revenue) + " vs last month"
	}

	cards := []components.Metric{
		{Label: "Revenue (month)", Value: cli.FormatMoney(r.Month.Revenue), Delta: revDelta},
		{Label: "Expenses (month)", Value: cli.FormatMoney(spent), Delta: fmt.Sprintf("%d categories", len(r.Expenses))},
		{Label: "Profit (month)", Value: cli.FormatMoney(r.Month.Profit), Tone: signTone(r.Month.Profit)},
		{Label: "Expected income", Value: cli.FormatMoney(expected), Delta: "next 6 months"},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Revenue trend
	vals := make([]float64, len(r.Revenue))
	labels := make([]string, len(r.Revenue))
	for i, p := range r.Revenue {
		vals[i] = p.Revenue
		labels[i] = p.Month.Format("Jan")
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Revenue (%d months)", len(r.Revenue)),
		components.BarChart(vals, labels, t.Green, components.CardInnerWidth(cw), 8, "$"),
		cw,
	))
	b.WriteString("\n")

	// Week + deadlines side by side
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		b.WriteString(a.weekCard(cw))
		b.WriteString("\n")
		b.WriteString(a.upcomingCard(cw, 5))
	} else {
		b.WriteString(components.CardRow([]string{
			a.weekCard(halves[0]),
			a.upcomingCard(halves[1], 5),
		}))
	}
	return b.String()
}

func (a App) weekCard(w int) string {
	t := theme.Active
	wk := a.report.Week
	innerW := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	fmt.Fprintf(&body, "%s %s\n",
		labelStyle.Render(fmt.Sprintf("%-10s", "Tracked")),
		valueStyle.Render(fmt.Sprintf("%s of %.0fh", cli.FormatHours(wk.TotalHours), wk.TargetHours)))
	fmt.Fprintf(&body, "%s %s\n",
		labelStyle.Render(fmt.Sprintf("%-10s", "Billable")),
		valueStyle.Render(fmt.Sprintf("%s (%s)", cli.FormatHours(wk.BillableHours), cli.FormatPercent(wk.BillableRatio))))
	body.WriteString(components.ProgressBar(min(wk.CompletionRate, 100)/100, max(innerW-6, 10)))

	return components.ContentCard(fmt.Sprintf("Week of %s", wk.WeekStart.Format("Jan 2")), body.String(), w)
}

func (a App) upcomingCard(w, limit int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var body strings.Builder
	shown := 0
	for _, d := range a.report.Deadlines {
		if d.Urgency == model.UrgencyUpcoming {
			continue
		}
		if shown == limit {
			break
		}
		if shown > 0 {
			body.WriteString("\n")
		}
		body.WriteString(deadlineLine(d, innerW))
		shown++
	}
	if shown == 0 {
		body.WriteString(dimStyle.Render("Nothing due in the next 3 days"))
	}
	return components.ContentCard("Needs attention", body.String(), w)
}

func signTone(v float64) components.Tone {
	switch {
	case v > 0:
		return components.TonePositive
	case v < 0:
		return components.ToneNegative
	default:
		return components.ToneNeutral
	}
}
