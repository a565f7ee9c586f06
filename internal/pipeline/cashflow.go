package pipeline

import (
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// CashFlowForecast projects the six calendar months starting with the month
// containing now.
//
// Expected income for a month is the outstanding amount of every open invoice
// due in that month. Projected expenses are the average monthly spend of the
// three complete months before the current one, computed once and applied to
// every forecast month unchanged.
func CashFlowForecast(invoices []model.Invoice, expenses []model.Expense, now time.Time) ([]model.CashFlowMonth, []model.SkippedRecord) {
	horizon := Buckets(now, ForecastMonths, Month, Forward)

	open := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if invoiceOpen(inv) {
			open = append(open, inv)
		}
	}
	due, skipped := Assign(horizon, open, invoiceByDue)

	projected, skippedExp := trailingExpenseAverage(expenses, now)
	skipped = append(skipped, skippedExp...)

	months := make([]model.CashFlowMonth, len(horizon))
	for i, b := range horizon {
		var income moneySum
		for _, inv := range due[i] {
			income.Add(outstandingOf(inv))
		}
		in := income.Float()
		months[i] = model.CashFlowMonth{
			Month:             b.Start,
			Label:             b.Label,
			ExpectedIncome:    in,
			ProjectedExpenses: projected,
			NetCashFlow:       in - projected,
			InvoiceCount:      len(due[i]),
		}
	}
	return months, skipped
}

// trailingExpenseAverage averages total spend over the complete calendar
// months immediately preceding the month containing now.
func trailingExpenseAverage(expenses []model.Expense, now time.Time) (float64, []model.SkippedRecord) {
	lastMonth := monthStart(now).AddDate(0, -1, 0)
	window := Buckets(lastMonth, ExpenseAverageMonths, Month, Backward)
	grouped, skipped := Assign(window, expenses, expenseByDate)

	var total moneySum
	for _, g := range grouped {
		for _, e := range g {
			total.Add(e.Amount)
		}
	}
	return total.Div(ExpenseAverageMonths), skipped
}
