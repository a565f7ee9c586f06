package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var profitabilityCmd = &cobra.Command{
	Use:     "profitability",
	Aliases: []string{"projects"},
	Short:   "Per-project budget vs. tracked time",
	RunE:    runProfitability,
}

func init() {
	rootCmd.AddCommand(profitabilityCmd)
}

func runProfitability(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewProfitability)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  at %s/h", cli.FormatMoney(r.HourlyRate))))
	fmt.Println()

	if len(r.Projects) == 0 {
		fmt.Println("  No projects found.")
		return nil
	}

	rows := make([][]string, 0, len(r.Projects))
	for _, p := range r.Projects {
		rows = append(rows, []string{
			truncate(p.Name, 28),
			optMoney(p.Budget),
			cli.FormatHours(p.ActualHours),
			cli.FormatMoney(p.Cost),
			profitCell(p),
			cli.FormatMoney(p.EffectiveRate) + "/h",
			varianceCell(p.HoursVariance),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Project", "Budget", "Hours", "Cost", "Profit", "Eff. Rate", "vs Est."},
		Rows:    rows,
	}))
	return nil
}

func profitCell(p model.ProjectProfit) string {
	if p.Profit == nil {
		return cli.Muted(string(model.ProfitNA))
	}
	return cli.Signed(*p.Profit, cli.FormatMoney(*p.Profit))
}

func optMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return cli.FormatMoney(*v)
}

func varianceCell(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v > 0 {
		return cli.Warn("+" + cli.FormatHours(*v))
	}
	return "-" + cli.FormatHours(-*v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
