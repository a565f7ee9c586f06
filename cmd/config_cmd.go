package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// runConfig prints the effective config: file, then environment, then flags.
func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Env prefix: %s_\n", config.EnvPrefix)
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.General.DataDir)
	fmt.Println()

	fmt.Println("  [Analytics]")
	fmt.Printf("    Hourly rate:   %s\n", cli.FormatMoney(cfg.Analytics.HourlyRate))
	fmt.Printf("    Trend window:  %d months\n", cfg.Analytics.WindowMonths)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	if len(cfg.Daemon.AllowedOrigins) > 0 {
		fmt.Printf("    CORS:     %s\n", strings.Join(cfg.Daemon.AllowedOrigins, ", "))
	}
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Advisor]")
	if cfg.Advisor.BaseURL != "" {
		fmt.Printf("    Endpoint: %s\n", cfg.Advisor.BaseURL)
	} else {
		fmt.Println("    Endpoint: not configured")
	}
	if cfg.Advisor.APIKey != "" {
		fmt.Printf("    API key:  %s\n", maskAPIKey(cfg.Advisor.APIKey))
	} else {
		fmt.Println("    API key:  not configured")
	}
	if cfg.Advisor.Model != "" {
		fmt.Printf("    Model:    %s\n", cfg.Advisor.Model)
	}
	fmt.Println()

	fmt.Println("  Run `opsdash setup` to reconfigure.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
