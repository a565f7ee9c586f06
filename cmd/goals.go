package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Progress of active financial goals",
	RunE:  runGoals,
}

func init() {
	rootCmd.AddCommand(goalsCmd)
}

func runGoals(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewGoals)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("GOALS"))
	fmt.Println()

	if len(r.Goals) == 0 {
		fmt.Println("  No active goals.")
		return nil
	}

	rows := make([][]string, 0, len(r.Goals))
	for _, g := range r.Goals {
		status := cli.Warn("behind")
		if g.OnTrack {
			status = cli.Positive("on track")
		}
		rows = append(rows, []string{
			truncate(g.Title, 30),
			string(g.GoalType),
			cli.FormatMoney(g.CurrentValue),
			cli.FormatMoney(g.TargetAmount),
			cli.FormatPct(g.Progress),
			status,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Goal", "Type", "Current", "Target", "Progress", "Status"},
		Rows:    rows,
	}))
	fmt.Printf("\n  This month: revenue %s, profit %s\n",
		cli.FormatMoney(r.Month.Revenue), cli.FormatMoney(r.Month.Profit))
	return nil
}
