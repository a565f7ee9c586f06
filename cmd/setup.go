package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/config"
	"github.com/theirongolddev/opsdash/internal/source"
	"github.com/theirongolddev/opsdash/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file, not the flag-merged cfg, so one-off flags are not persisted.
	saved, err := config.Load()
	if err != nil {
		saved = config.DefaultConfig()
	}

	files, _ := source.ScanDir(flagDataDir)

	dataDir := flagDataDir
	rate := strconv.FormatFloat(saved.Analytics.HourlyRate, 'f', -1, 64)
	window := saved.Analytics.WindowMonths
	themeName := saved.Appearance.Theme
	advisorURL := saved.Advisor.BaseURL
	advisorKey := ""

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	keyDesc := "Optional. Leave empty to keep the current key."
	if saved.Advisor.APIKey != "" {
		keyDesc = fmt.Sprintf("Current: %s. Leave empty to keep it.", maskAPIKey(saved.Advisor.APIKey))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to opsdash!").
				Description(fmt.Sprintf("Found %s export files in %s.",
					cli.FormatNumber(int64(len(files))), flagDataDir)),
			huh.NewInput().
				Title("Export directory").
				Value(&dataDir),
			huh.NewInput().
				Title("Hourly rate").
				Description("Used to price tracked time in profitability.").
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v < 0 {
						return errors.New("enter a non-negative number")
					}
					return nil
				}).
				Value(&rate),
			huh.NewSelect[int]().
				Title("Revenue trend window").
				Options(huh.NewOption("6 months", 6), huh.NewOption("12 months", 12)).
				Value(&window),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
			huh.NewInput().
				Title("Audit service URL").
				Description("Optional. Used by `opsdash audit`.").
				Value(&advisorURL),
			huh.NewInput().
				Title("Audit service API key").
				Description(keyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&advisorKey),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	saved.General.DataDir = strings.TrimSpace(dataDir)
	saved.Analytics.HourlyRate, _ = strconv.ParseFloat(strings.TrimSpace(rate), 64)
	saved.Analytics.WindowMonths = window
	saved.Appearance.Theme = themeName
	saved.Advisor.BaseURL = strings.TrimSpace(advisorURL)
	if k := strings.TrimSpace(advisorKey); k != "" {
		saved.Advisor.APIKey = k
	}

	if err := config.Save(saved); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `opsdash setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
