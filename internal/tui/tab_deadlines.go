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

func urgencyColor(u model.Urgency) lipgloss.Color {
	t := theme.Active
	switch u {
	case model.UrgencyOverdue:
		return t.Red
	case model.UrgencyToday:
		return t.Orange
	case model.UrgencySoon:
		return t.Yellow
	default:
		return t.TextMuted
	}
}

// deadlineLine renders one deadline: urgency badge, title, relative due date.
func deadlineLine(d model.Deadline, width int) string {
	t := theme.Active
	badge := lipgloss.NewStyle().Foreground(urgencyColor(d.Urgency)).Background(t.Surface).Bold(true)
	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	when := cli.FormatDays(d.DaysUntil)
	kind := "T"
	if d.Kind == model.DeadlineProject {
		kind = "P"
	}
	titleW := max(width-10-lipgloss.Width(when)-4, 8)

	return badge.Render(fmt.Sprintf("%-9s", d.Urgency)) +
		dimStyle.Render(kind+" ") +
		titleStyle.Render(fmt.Sprintf("%-*s", titleW, truncStr(d.Title, titleW))) +
		dimStyle.Render(" "+when)
}

func (a App) renderDeadlinesTab(cw int) string {
	t := theme.Active
	r := a.report
	var b strings.Builder

	counts := map[model.Urgency]int{}
	for _, d := range r.Deadlines {
		counts[d.Urgency]++
	}
	overdueTone := components.ToneNeutral
	if counts[model.UrgencyOverdue] > 0 {
		overdueTone = components.ToneNegative
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Overdue", Value: fmt.Sprintf("%d", counts[model.UrgencyOverdue]), Tone: overdueTone},
		{Label: "Due today", Value: fmt.Sprintf("%d", counts[model.UrgencyToday])},
		{Label: "Within 3 days", Value: fmt.Sprintf("%d", counts[model.UrgencySoon])},
		{Label: "Later", Value: fmt.Sprintf("%d", counts[model.UrgencyUpcoming])},
	}, cw))
	b.WriteString("\n")

	innerW := components.CardInnerWidth(cw)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var list strings.Builder
	for i, d := range r.Deadlines {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString(deadlineLine(d, innerW))
	}
	if len(r.Deadlines) == 0 {
		list.WriteString(dimStyle.Render("No open tasks or projects with a due date"))
	}
	b.WriteString(components.ContentCard("Deadlines", list.String(), cw))
	b.WriteString("\n")

	b.WriteString(a.goalsCard(cw))
	return b.String()
}

func (a App) goalsCard(w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	labelW := min(24, innerW/3)
	barW := max(innerW-labelW-30, 10)

	var body strings.Builder
	for i, g := range a.report.Goals {
		if i > 0 {
			body.WriteString("\n")
		}
		detail := fmt.Sprintf("%s / %s", cli.FormatMoney(g.CurrentValue), cli.FormatMoney(g.TargetAmount))
		if g.OnTrack {
			detail += " ✓"
		}
		body.WriteString(components.GoalBar(g.Title, g.Progress, detail, labelW, barW))
	}
	if len(a.report.Goals) == 0 {
		body.WriteString(dimStyle.Render("No active goals"))
	}
	return components.ContentCard("Goals", body.String(), w)
}
