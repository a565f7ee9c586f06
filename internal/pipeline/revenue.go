package pipeline

import (
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// RevenueTrend sums payments per calendar month over the trailing window of
// windowMonths months ending with the month containing now. Months with no
// payments are present with zero revenue.
func RevenueTrend(payments []model.Payment, now time.Time, windowMonths int) ([]model.RevenuePoint, []model.SkippedRecord) {
	buckets := Buckets(now, windowMonths, Month, Backward)
	grouped, skipped := Assign(buckets, payments, paymentByDate)

	points := make([]model.RevenuePoint, len(buckets))
	for i, b := range buckets {
		var total moneySum
		for _, p := range grouped[i] {
			total.Add(p.Amount)
		}
		points[i] = model.RevenuePoint{
			Month:        b.Start,
			Label:        b.Label,
			Revenue:      total.Float(),
			PaymentCount: len(grouped[i]),
		}
	}
	return points, skipped
}

// ThisMonthMetrics derives the current month's revenue (payments received)
// and profit (revenue minus expenses) for goal tracking.
func ThisMonthMetrics(payments []model.Payment, expenses []model.Expense, now time.Time) (model.MonthMetrics, []model.SkippedRecord) {
	month := []Bucket{BucketFor(now, Month)}

	paid, skipped := Assign(month, payments, paymentByDate)
	spent, skippedExp := Assign(month, expenses, expenseByDate)
	skipped = append(skipped, skippedExp...)

	var revenue, cost moneySum
	for _, p := range paid[0] {
		revenue.Add(p.Amount)
	}
	for _, e := range spent[0] {
		cost.Add(e.Amount)
	}

	profit := revenue
	profit.d = profit.d.Sub(cost.d)

	return model.MonthMetrics{
		Revenue: revenue.Float(),
		Profit:  profit.Float(),
	}, skipped
}
