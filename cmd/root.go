// Package cmd implements the opsdash CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/config"
	"github.com/theirongolddev/opsdash/internal/logger"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"
	"github.com/theirongolddev/opsdash/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagNow      string
	flagRate     float64
	flagWindow   int
	flagNoCache  bool
	flagQuiet    bool
	flagLogLevel string
)

// cfg is the loaded configuration, with flags already applied.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:               "opsdash",
	Short:             "Freelance finance and operations dashboard",
	Long:              "Analyze revenue, expenses, cash flow, project profitability, time tracking, goals and deadlines from your exported records.",
	PersistentPreRunE: setup,
	RunE:              runSummary,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Export directory (default from config or XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Reference date for reports, e.g. 2024-03-31 (default: now)")
	rootCmd.PersistentFlags().Float64VarP(&flagRate, "rate", "r", 0, "Hourly rate for profitability (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagWindow, "window", "w", 0, "Revenue trend window in months: 6 or 12 (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// setup loads the config file and lets explicitly set flags win over it.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Config error, using defaults: %v\n", err)
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.General.DataDir = flagDataDir
	}
	if cfg.General.DataDir == "" {
		cfg.General.DataDir = pipeline.DataDir()
	}
	flagDataDir = cfg.General.DataDir

	if flags.Changed("rate") {
		cfg.Analytics.HourlyRate = flagRate
	}
	if flags.Changed("window") {
		cfg.Analytics.WindowMonths = flagWindow
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}

	lc := logger.DefaultConfig()
	lc.Level, lc.Format = cfg.Log.Level, cfg.Log.Format
	return logger.Setup(lc)
}

// referenceNow resolves --now, defaulting to the current time.
func referenceNow() (time.Time, error) {
	if flagNow == "" {
		return time.Now(), nil
	}
	t, ok := pipeline.ParseDate(flagNow)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --now %q: want YYYY-MM-DD", flagNow)
	}
	// A bare date means the end of that day.
	if len(flagNow) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// openSource is the shared data loading path used by all commands.
// It serves records from the SQLite cache when available and falls back to
// parsing every export file in memory. The returned func releases resources.
func openSource() (pipeline.Source, func(), error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning exports...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%25 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	if !flagNoCache {
		st, err := store.Open(pipeline.CachePath())
		if err != nil {
			log.Warn().Err(err).Msg("cache unavailable, doing full parse")
		} else {
			sr, err := pipeline.SyncCache(flagDataDir, st, progressFn)
			if err == nil {
				if !flagQuiet && sr.TotalFiles > 0 {
					fmt.Fprintf(os.Stderr, "\r  %s cached + %d reparsed (%d removed)    \n",
						cli.FormatNumber(int64(sr.CacheHits)), sr.Reparsed, sr.Removed)
				}
				warnFileErrors(sr.FileErrors, sr.ParseErrors)
				return st, func() { _ = st.Close() }, nil
			}
			_ = st.Close()
			log.Warn().Err(err).Msg("cache error, falling back to full parse")
		}
	}

	result, err := pipeline.Load(flagDataDir, progressFn)
	if err != nil {
		return nil, nil, err
	}
	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s records across %d files    \n",
			cli.FormatNumber(int64(result.Snapshot.Len())), result.ParsedFiles)
	}
	warnFileErrors(result.FileErrors, result.ParseErrors)
	return pipeline.SnapshotSource{Snapshot: result.Snapshot}, func() {}, nil
}

func warnFileErrors(fileErrors, parseErrors int) {
	if fileErrors > 0 {
		log.Warn().Int("files", fileErrors).Msg("export files could not be read")
	}
	if parseErrors > 0 {
		log.Warn().Int("lines", parseErrors).Msg("export lines could not be decoded")
	}
}

// buildReport loads the data and runs the orchestrator for one view.
func buildReport(view pipeline.View) (*model.Report, error) {
	now, err := referenceNow()
	if err != nil {
		return nil, err
	}

	src, closeFn, err := openSource()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	r, err := pipeline.NewOrchestrator(src).Build(context.Background(), pipeline.Request{
		View:         view,
		Now:          now,
		HourlyRate:   cfg.Analytics.HourlyRate,
		WindowMonths: cfg.Analytics.WindowMonths,
	})
	if err != nil {
		return nil, err
	}

	for _, s := range r.Skipped {
		log.Warn().Str("entity", s.Entity).Str("id", s.ID).Str("field", s.Field).
			Str("value", s.Value).Msg("skipped record with missing or unparsable date")
	}
	return r, nil
}
