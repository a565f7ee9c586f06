package pipeline

import "github.com/shopspring/decimal"

// moneySum accumulates currency amounts exactly so that totals do not depend
// on the order records arrive in.
type moneySum struct {
	d decimal.Decimal
}

func (m *moneySum) Add(v float64) {
	m.d = m.d.Add(decimal.NewFromFloat(v))
}

func (m *moneySum) AddSum(o moneySum) {
	m.d = m.d.Add(o.d)
}

func (m moneySum) Float() float64 {
	return m.d.InexactFloat64()
}

// Div returns the sum divided by n, or 0 when n is 0.
func (m moneySum) Div(n int) float64 {
	if n == 0 {
		return 0
	}
	return m.d.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
