package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/tui/components"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Project table sort orders.
const (
	projSortProfit = iota
	projSortHours
	projSortRate
	projSortName
	projSortCount
)

var projSortNames = [projSortCount]string{"profit", "hours", "rate", "name"}

type projectsState struct {
	cursor int
	offset int
	sortBy int
}

func (s *projectsState) clamp(n int) {
	if n == 0 {
		s.cursor, s.offset = 0, 0
		return
	}
	s.cursor = min(max(s.cursor, 0), n-1)
	s.offset = min(s.offset, s.cursor)
}

func (s *projectsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

// follow scrolls the visible window so the cursor stays inside rows lines.
func (s *projectsState) follow(rows int) {
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
}

func profitOrMin(p *float64) float64 {
	if p == nil {
		return -1e18
	}
	return *p
}

func sortedProjects(rows []model.ProjectProfit, by int) []model.ProjectProfit {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(x, y model.ProjectProfit) int {
		switch by {
		case projSortHours:
			return cmp.Compare(y.ActualHours, x.ActualHours)
		case projSortRate:
			return cmp.Compare(y.EffectiveRate, x.EffectiveRate)
		case projSortName:
			return cmp.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name))
		default:
			return cmp.Compare(profitOrMin(y.Profit), profitOrMin(x.Profit))
		}
	})
	return out
}

func statusColor(s model.ProfitStatus) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.ProfitProfitable:
		return t.Green
	case model.ProfitUnprofitable:
		return t.Red
	case model.ProfitBreakeven:
		return t.Yellow
	default:
		return t.TextDim
	}
}

func optMoney(p *float64) string {
	if p == nil {
		return "-"
	}
	return cli.FormatMoney(*p)
}

func (a App) renderProjectsTab(cw, h int) string {
	t := theme.Active
	rows := sortedProjects(a.report.Projects, a.projState.sortBy)

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	nameW := max(innerW-62, 12)

	// Card chrome, header and footer take six lines.
	visible := max(h-6, 1)
	st := a.projState
	st.follow(visible)

	var body strings.Builder
	body.WriteString(headStyle.Render(fmt.Sprintf("%-*s %10s %10s %10s %8s %8s %12s",
		nameW, "Project", "Budget", "Cost", "Profit", "Hours", "$/h", "Status")))

	end := min(st.offset+visible, len(rows))
	for i := st.offset; i < end; i++ {
		p := rows[i]
		style := rowStyle
		if i == st.cursor {
			style = selStyle
		}
		body.WriteString("\n")
		body.WriteString(style.Render(fmt.Sprintf("%-*s %10s %10s %10s %8s %8s ",
			nameW, truncStr(p.Name, nameW),
			optMoney(p.Budget), cli.FormatMoney(p.Cost), optMoney(p.Profit),
			cli.FormatHours(p.ActualHours), cli.FormatMoney(p.EffectiveRate))))
		body.WriteString(lipgloss.NewStyle().Foreground(statusColor(p.Status)).Background(style.GetBackground()).
			Render(fmt.Sprintf("%12s", p.Status)))
	}
	if len(rows) == 0 {
		body.WriteString("\n")
		body.WriteString(dimStyle.Render("No projects"))
	}

	body.WriteString("\n")
	footer := fmt.Sprintf("sorted by %s · s to change · rate %s/h", projSortNames[st.sortBy], cli.FormatMoney(a.rate))
	if len(rows) > 0 {
		sel := rows[st.cursor]
		if sel.HoursVariance != nil {
			footer = fmt.Sprintf("%s · %+.1fh vs budget · %s", sel.Name, *sel.HoursVariance, footer)
		}
	}
	body.WriteString(dimStyle.Render(truncStr(footer, innerW)))

	return components.ContentCard(fmt.Sprintf("Project profitability (%d)", len(rows)), body.String(), cw)
}
