package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Monthly revenue trend from received payments",
	RunE:  runRevenue,
}

func init() {
	rootCmd.AddCommand(revenueCmd)
}

func runRevenue(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewRevenue)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("REVENUE  Last %d months", r.WindowMonths)))
	fmt.Println()

	var total, peak float64
	payments := 0
	for _, p := range r.Revenue {
		total += p.Revenue
		payments += p.PaymentCount
		if p.Revenue > peak {
			peak = p.Revenue
		}
	}

	rows := make([][]string, 0, len(r.Revenue)+2)
	for i, p := range r.Revenue {
		change := ""
		if i > 0 {
			change = cli.FormatDelta(p.Revenue, r.Revenue[i-1].Revenue)
		}
		rows = append(rows, []string{
			p.Label,
			cli.FormatMoney(p.Revenue),
			fmt.Sprintf("%d", p.PaymentCount),
			change,
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatMoney(total), fmt.Sprintf("%d", payments), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Revenue", "Payments", "Change"},
		Rows:    rows,
	}))

	fmt.Println()
	for _, p := range r.Revenue {
		fmt.Println(cli.RenderHorizontalBar(fmt.Sprintf("%-8s", p.Label), p.Revenue, peak, 40))
	}
	return nil
}
