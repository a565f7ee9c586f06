package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/tui/components"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderFinanceTab(cw int) string {
	t := theme.Active
	r := a.report
	var b strings.Builder

	// Revenue trend
	vals := make([]float64, len(r.Revenue))
	labels := make([]string, len(r.Revenue))
	var total float64
	for i, p := range r.Revenue {
		vals[i] = p.Revenue
		labels[i] = p.Month.Format("Jan")
		total += p.Revenue
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Revenue trend (%d months, %s)", len(r.Revenue), cli.FormatMoney(total)),
		components.BarChart(vals, labels, t.Green, components.CardInnerWidth(cw), 8, "$"),
		cw,
	))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		b.WriteString(a.expensesCard(cw))
		b.WriteString("\n")
		b.WriteString(a.cashFlowCard(cw))
	} else {
		b.WriteString(components.CardRow([]string{a.expensesCard(halves[0]), a.cashFlowCard(halves[1])}))
	}
	return b.String()
}

func (a App) expensesCard(w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	nameW := min(14, innerW/3)
	barMaxW := max(innerW-nameW-20, 4)

	var body strings.Builder
	var total float64
	for i, e := range a.report.Expenses {
		total += e.Amount
		if i > 0 {
			body.WriteString("\n")
		}
		barW := int(e.Percent * float64(barMaxW))
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(e.Label, nameW))))
		body.WriteString(pctStyle.Render(" "))
		body.WriteString(barStyle.Render(strings.Repeat("█", barW)))
		body.WriteString(pctStyle.Render(fmt.Sprintf("%*s", barMaxW-barW+1, "")))
		body.WriteString(pctStyle.Render(fmt.Sprintf("%9s %5s", cli.FormatMoney(e.Amount), cli.FormatPct(e.Percent*100))))
	}
	if len(a.report.Expenses) == 0 {
		body.WriteString(dimStyle.Render("No expenses this month"))
	}
	return components.ContentCard(fmt.Sprintf("Expenses this month (%s)", cli.FormatMoney(total)), body.String(), w)
}

func (a App) cashFlowCard(w int) string {
	t := theme.Active
	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	posStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var body strings.Builder
	body.WriteString(headStyle.Render(fmt.Sprintf("%-9s %11s %11s %12s", "Month", "Income", "Expenses", "Net")))
	for _, m := range a.report.CashFlow {
		body.WriteString("\n")
		body.WriteString(cellStyle.Render(fmt.Sprintf("%-9s %11s %11s ",
			m.Month.Format("Jan 2006"), cli.FormatMoney(m.ExpectedIncome), cli.FormatMoney(m.ProjectedExpenses))))
		net := fmt.Sprintf("%12s", cli.FormatSigned(m.NetCashFlow))
		if m.NetCashFlow < 0 {
			body.WriteString(negStyle.Render(net))
		} else {
			body.WriteString(posStyle.Render(net))
		}
	}
	return components.ContentCard("Cash-flow forecast", body.String(), w)
}
