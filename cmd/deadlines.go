package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagAllDeadlines bool

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "Open tasks and projects ordered by due date",
	RunE:  runDeadlines,
}

func init() {
	deadlinesCmd.Flags().BoolVarP(&flagAllDeadlines, "all", "a", false, "Include upcoming deadlines beyond three days")
	rootCmd.AddCommand(deadlinesCmd)
}

func runDeadlines(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewDeadlines)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DEADLINES"))
	fmt.Println()

	rows := make([][]string, 0, len(r.Deadlines))
	for _, d := range r.Deadlines {
		if d.Urgency == model.UrgencyUpcoming && !flagAllDeadlines {
			continue
		}
		rows = append(rows, []string{
			truncate(d.Title, 36),
			string(d.Kind),
			d.DueDate.Format("Mon Jan 2"),
			urgencyCell(d),
		})
	}

	if len(rows) == 0 {
		fmt.Println("  Nothing due. Use --all to list upcoming deadlines.")
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Item", "Kind", "Due", "When"},
		Rows:    rows,
	}))
	return nil
}

func urgencyCell(d model.Deadline) string {
	s := cli.FormatDays(d.DaysUntil)
	switch d.Urgency {
	case model.UrgencyOverdue:
		return cli.Negative(s)
	case model.UrgencyToday, model.UrgencySoon:
		return cli.Warn(s)
	}
	return s
}
