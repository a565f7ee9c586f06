package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "This month's expenses by category",
	RunE:  runExpenses,
}

func init() {
	rootCmd.AddCommand(expensesCmd)
}

func runExpenses(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewExpenses)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("EXPENSES  %s", r.GeneratedAt.Format("January 2006"))))
	fmt.Println()

	if len(r.Expenses) == 0 {
		fmt.Println("  No expenses recorded this month.")
		return nil
	}

	var total float64
	rows := make([][]string, 0, len(r.Expenses)+2)
	for _, e := range r.Expenses {
		total += e.Amount
		rows = append(rows, []string{e.Label, cli.FormatMoney(e.Amount), cli.FormatPercent(e.Percent)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatMoney(total), cli.FormatPercent(1)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Amount", "Share"},
		Rows:    rows,
	}))
	return nil
}
