package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "This week's tracked hours against the weekly target",
	RunE:  runWeek,
}

func init() {
	rootCmd.AddCommand(weekCmd)
}

func runWeek(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewTimesheet)
	if err != nil {
		return err
	}
	w := r.Week

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TIME  Week of %s", w.WeekStart.Format("Jan 2"))))
	fmt.Println()

	var peak float64
	for _, h := range w.Daily {
		if h > peak {
			peak = h
		}
	}
	for i, h := range w.Daily {
		day := w.WeekStart.AddDate(0, 0, i)
		label := fmt.Sprintf("%s %-8s", day.Format("Mon"), cli.FormatHours(h))
		fmt.Println(cli.RenderHorizontalBar(label, h, peak, 36))
	}
	fmt.Println()

	completion := cli.FormatPct(w.CompletionRate)
	if w.CompletionRate >= 100 {
		completion = cli.Positive(completion)
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total", cli.FormatHours(w.TotalHours)},
			{"Billable", cli.FormatHours(w.BillableHours)},
			{"Billable ratio", cli.FormatPercent(w.BillableRatio)},
			{"---"},
			{"Target", cli.FormatHours(w.TargetHours)},
			{"Completion", completion},
			{"Entries", fmt.Sprintf("%d", w.EntryCount)},
		},
	}))
	return nil
}
