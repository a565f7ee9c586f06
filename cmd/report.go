package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagJSON bool

var reportCmd = &cobra.Command{
	Use:       "report [view]",
	Short:     "Print one view's report (default: overview)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: viewNames(),
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit the report as JSON")
	rootCmd.AddCommand(reportCmd)
}

// textViews maps each view to its human-readable command.
var textViews = map[pipeline.View]func(*cobra.Command, []string) error{
	pipeline.ViewOverview:      runSummary,
	pipeline.ViewRevenue:       runRevenue,
	pipeline.ViewExpenses:      runExpenses,
	pipeline.ViewCashFlow:      runCashFlow,
	pipeline.ViewProfitability: runProfitability,
	pipeline.ViewHeatmap:       runHeatmap,
	pipeline.ViewTimesheet:     runWeek,
	pipeline.ViewGoals:         runGoals,
	pipeline.ViewDeadlines:     runDeadlines,
}

func viewNames() []string {
	names := make([]string, len(pipeline.Views))
	for i, v := range pipeline.Views {
		names[i] = string(v)
	}
	return names
}

func runReport(cmd *cobra.Command, args []string) error {
	view := pipeline.ViewOverview
	if len(args) == 1 {
		v, err := pipeline.ParseView(args[0])
		if err != nil {
			return err
		}
		view = v
	}

	if !flagJSON {
		return textViews[view](cmd, nil)
	}

	flagQuiet = true
	r, err := buildReport(view)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
