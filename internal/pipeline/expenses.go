package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// categoryLabels maps canonical expense category codes to display labels.
var categoryLabels = map[string]string{
	"office_supplies": "Office Supplies",
	"software":        "Software",
	"hardware":        "Hardware",
	"travel":          "Travel",
	"meals":           "Meals",
	"marketing":       "Marketing",
	"education":       "Education",
	"insurance":       "Insurance",
	"legal":           "Legal",
	"accounting":      "Accounting",
	"utilities":       "Utilities",
	"rent":            "Rent",
	"other":           "Other",
}

var titleCaser = cases.Title(language.English)

// CategoryLabel returns the display label for an expense category code.
// Codes outside the canonical table pass through title-cased.
func CategoryLabel(code string) string {
	if l, ok := categoryLabels[code]; ok {
		return l
	}
	return titleCaser.String(strings.ReplaceAll(code, "_", " "))
}

// ExpenseBreakdown groups the current calendar month's expenses by category.
// Shares are fractions of the month total and are 0 when the total is 0.
// The result is ordered by amount, largest first, then by category.
func ExpenseBreakdown(expenses []model.Expense, now time.Time) ([]model.ExpenseShare, []model.SkippedRecord) {
	month := []Bucket{BucketFor(now, Month)}
	grouped, skipped := Assign(month, expenses, expenseByDate)

	sums := make(map[string]*moneySum)
	var total moneySum
	for _, e := range grouped[0] {
		c := categoryOf(e)
		s, ok := sums[c]
		if !ok {
			s = &moneySum{}
			sums[c] = s
		}
		s.Add(e.Amount)
		total.Add(e.Amount)
	}

	monthTotal := total.Float()
	shares := make([]model.ExpenseShare, 0, len(sums))
	for c, s := range sums {
		amt := s.Float()
		shares = append(shares, model.ExpenseShare{
			Category: c,
			Label:    CategoryLabel(c),
			Amount:   amt,
			Percent:  ratio(amt, monthTotal),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount != shares[j].Amount {
			return shares[i].Amount > shares[j].Amount
		}
		return shares[i].Category < shares[j].Category
	})
	return shares, skipped
}
