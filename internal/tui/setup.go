package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/config"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues backs the first-run form fields.
type setupValues struct {
	dataDir string
	rate    string
	window  int
	theme   string
}

func newSetupValues(dataDir string, rate float64, window int) setupValues {
	return setupValues{
		dataDir: dataDir,
		rate:    strconv.FormatFloat(rate, 'f', -1, 64),
		window:  window,
		theme:   theme.Active.Name,
	}
}

func validateRate(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number, e.g. 85")
	}
	if v < 0 {
		return errors.New("rate cannot be negative")
	}
	return nil
}

func newSetupForm(records int, vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to opsdash").
				Description(fmt.Sprintf("Found %s records. A few settings and you're in.",
					cli.FormatNumber(int64(records)))),
			huh.NewInput().
				Title("Export directory").
				Description("Where your JSONL exports live.").
				Value(&vals.dataDir),
			huh.NewInput().
				Title("Hourly rate").
				Description("Used to price tracked time in profitability.").
				Validate(validateRate).
				Value(&vals.rate),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Revenue trend window").
				Options(
					huh.NewOption("6 months", 6),
					huh.NewOption("12 months", 12),
				).
				Value(&vals.window),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(true)
}

// saveSetupConfig applies the form to the session and persists it.
// It reports whether the data directory changed and a reload is needed.
func (a *App) saveSetupConfig() bool {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if rate, err := strconv.ParseFloat(strings.TrimSpace(a.setupVals.rate), 64); err == nil {
		cfg.Analytics.HourlyRate = rate
		a.rate = rate
	}
	cfg.Analytics.WindowMonths = a.setupVals.window
	a.window = a.setupVals.window

	cfg.Appearance.Theme = a.setupVals.theme
	theme.SetActive(cfg.Appearance.Theme)

	reload := false
	if dir := strings.TrimSpace(a.setupVals.dataDir); dir != "" {
		cfg.General.DataDir = dir
		reload = dir != a.opts.DataDir
		a.opts.DataDir = dir
	}

	_ = config.Save(cfg)
	return reload
}
