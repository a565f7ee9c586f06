package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Six-month cash-flow forecast from open invoices",
	RunE:  runCashFlow,
}

func init() {
	rootCmd.AddCommand(cashflowCmd)
}

func runCashFlow(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewCashFlow)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CASH FLOW  Next 6 months"))
	fmt.Println()

	var in, out float64
	rows := make([][]string, 0, len(r.CashFlow)+2)
	for _, m := range r.CashFlow {
		in += m.ExpectedIncome
		out += m.ProjectedExpenses
		rows = append(rows, []string{
			m.Label,
			cli.FormatMoney(m.ExpectedIncome),
			fmt.Sprintf("%d", m.InvoiceCount),
			cli.FormatMoney(m.ProjectedExpenses),
			cli.Signed(m.NetCashFlow, cli.FormatSigned(m.NetCashFlow)),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatMoney(in), "", cli.FormatMoney(out), cli.FormatSigned(in - out)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Expected In", "Invoices", "Projected Out", "Net"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Println(cli.Muted("  Projected expenses are the average of the last three complete months."))
	return nil
}
