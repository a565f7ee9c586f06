package cmd

import (
	"fmt"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "One-screen overview of the month, the week and what is due",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	r, err := buildReport(pipeline.ViewOverview)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("OPSDASH  %s", r.GeneratedAt.Format("January 2006"))))
	fmt.Println()

	var outstanding float64
	for _, m := range r.CashFlow {
		outstanding += m.ExpectedIncome
	}
	var spent float64
	for _, e := range r.Expenses {
		spent += e.Amount
	}
	overdue, soon := countUrgent(r.Deadlines)

	rows := [][]string{
		{"Revenue (month)", cli.FormatMoney(r.Month.Revenue)},
		{"Expenses (month)", cli.FormatMoney(spent)},
		{"Profit (month)", cli.Signed(r.Month.Profit, cli.FormatMoney(r.Month.Profit))},
		{"---"},
		{"Expected income (6 mo)", cli.FormatMoney(outstanding)},
		{"Next month net", nextNet(r.CashFlow)},
		{"---"},
		{"Hours this week", fmt.Sprintf("%s / %.0fh", cli.FormatHours(r.Week.TotalHours), r.Week.TargetHours)},
		{"Billable ratio", cli.FormatPercent(r.Week.BillableRatio)},
		{"---"},
		{"Overdue", fmt.Sprintf("%d", overdue)},
		{"Due within 3 days", fmt.Sprintf("%d", soon)},
		{"Goals on track", fmt.Sprintf("%d / %d", countOnTrack(r.Goals), len(r.Goals))},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(r.Revenue) > 0 {
		vals := make([]float64, len(r.Revenue))
		for i, p := range r.Revenue {
			vals[i] = p.Revenue
		}
		fmt.Printf("\n  Revenue %d mo  %s\n", len(vals), cli.RenderSparkline(vals))
	}
	return nil
}

func nextNet(months []model.CashFlowMonth) string {
	if len(months) < 2 {
		return "-"
	}
	v := months[1].NetCashFlow
	return cli.Signed(v, cli.FormatSigned(v))
}

func countUrgent(ds []model.Deadline) (overdue, soon int) {
	for _, d := range ds {
		switch d.Urgency {
		case model.UrgencyOverdue:
			overdue++
		case model.UrgencyToday, model.UrgencySoon:
			soon++
		}
	}
	return overdue, soon
}

func countOnTrack(gs []model.GoalProgress) int {
	n := 0
	for _, g := range gs {
		if g.OnTrack {
			n++
		}
	}
	return n
}
