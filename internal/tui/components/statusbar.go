package components

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the status bar reports on its right side.
type StatusInfo struct {
	DataAge     string
	Rate        string
	Window      int
	Skipped     int
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := " [?]help  [+/-]rate  [w]indow  [r]efresh  [q]uit"

	right := accentStyle.Render(fmt.Sprintf("%s/h  %dmo", info.Rate, info.Window))
	if info.Skipped > 0 {
		right += style.UnsetWidth().Render("  ") + warnStyle.Render(fmt.Sprintf("%d skipped", info.Skipped))
	}
	switch {
	case info.Refreshing:
		right += style.UnsetWidth().Render("  refreshing...")
	case info.AutoRefresh:
		right += style.UnsetWidth().Render("  auto")
	}
	if info.DataAge != "" {
		right += style.UnsetWidth().Render(fmt.Sprintf("  %s ", info.DataAge))
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + fmt.Sprintf("%*s", padding, "") + right)
}
