package pipeline

import (
	"strings"

	"github.com/theirongolddev/opsdash/internal/model"
)

// Default-value policy. Every calculator resolves optional fields through
// these functions so that a field defaults the same way everywhere.

const (
	// DefaultCategory is used for expenses with no category.
	DefaultCategory = "other"
	// WeeklyTargetHours is the fixed weekly time-tracking target.
	WeeklyTargetHours = 40.0
	// OnTrackThreshold is the goal progress at or above which a goal is on track.
	OnTrackThreshold = 75.0
	// ForecastMonths is the cash-flow forecast horizon.
	ForecastMonths = 6
	// ExpenseAverageMonths is the trailing window of the flat expense projection.
	ExpenseAverageMonths = 3
	// SoonDays is the largest days-until that still counts as "soon".
	SoonDays = 3
	// DefaultWindowMonths is the revenue trend window used when none is given.
	DefaultWindowMonths = 6
)

var (
	// Statuses after which a task no longer has a live deadline.
	closedTaskStatuses = map[string]struct{}{
		"completed": {}, "done": {}, "cancelled": {},
	}
	// Statuses after which a project no longer has a live deadline.
	closedProjectStatuses = map[string]struct{}{
		"completed": {}, "cancelled": {}, "archived": {},
	}
	// Invoice statuses that will not produce future income.
	settledInvoiceStatuses = map[model.InvoiceStatus]struct{}{
		model.InvoicePaid: {}, model.InvoiceCancelled: {},
	}
)

// categoryOf returns the expense category, defaulting to "other".
func categoryOf(e model.Expense) string {
	c := strings.ToLower(strings.TrimSpace(e.Category))
	if c == "" {
		return DefaultCategory
	}
	return c
}

// outstandingOf returns the amount still owed on an invoice. The stored
// remaining amount is trusted; the total is used only when it is absent.
func outstandingOf(inv model.Invoice) float64 {
	if inv.RemainingAmount != nil {
		return *inv.RemainingAmount
	}
	return inv.TotalAmount
}

// budgetOr returns the project budget or def when absent.
func budgetOr(p model.Project, def float64) float64 {
	if p.Budget != nil {
		return *p.Budget
	}
	return def
}

// goalCurrentOf returns a goal's stored current amount, 0 when absent.
func goalCurrentOf(g model.FinancialGoal) float64 {
	if g.CurrentAmount != nil {
		return *g.CurrentAmount
	}
	return 0
}

// minutesOf returns a time entry's duration, treating negatives as zero.
func minutesOf(e model.TimeEntry) float64 {
	if e.DurationMinutes < 0 {
		return 0
	}
	return e.DurationMinutes
}

// entryDateOf returns the field that dates a time entry: start time,
// falling back to the created date.
func entryDateOf(e model.TimeEntry) string {
	if strings.TrimSpace(e.StartTime) != "" {
		return e.StartTime
	}
	return e.CreatedDate
}

// entryDateField names the field entryDateOf reads.
func entryDateField(e model.TimeEntry) string {
	if strings.TrimSpace(e.StartTime) != "" {
		return "start_time"
	}
	return "created_date"
}

func taskOpen(t model.Task) bool {
	_, closed := closedTaskStatuses[strings.ToLower(t.Status)]
	return !closed
}

func projectOpen(p model.Project) bool {
	_, closed := closedProjectStatuses[strings.ToLower(p.Status)]
	return !closed
}

func invoiceOpen(inv model.Invoice) bool {
	_, settled := settledInvoiceStatuses[model.InvoiceStatus(strings.ToLower(string(inv.Status)))]
	return !settled
}

// Record descriptors used with Assign.
var (
	paymentByDate = Dated[model.Payment]{
		Entity: "payment", Field: "payment_date",
		ID:   func(p model.Payment) string { return p.ID },
		Date: func(p model.Payment) string { return p.PaymentDate },
	}
	expenseByDate = Dated[model.Expense]{
		Entity: "expense", Field: "date",
		ID:   func(e model.Expense) string { return e.ID },
		Date: func(e model.Expense) string { return e.Date },
	}
	invoiceByDue = Dated[model.Invoice]{
		Entity: "invoice", Field: "due_date",
		ID:   func(i model.Invoice) string { return i.ID },
		Date: func(i model.Invoice) string { return i.DueDate },
	}
	entryByStart = Dated[model.TimeEntry]{
		Entity: "time_entry", Field: "start_time",
		ID:   func(e model.TimeEntry) string { return e.ID },
		Date: func(e model.TimeEntry) string { return e.StartTime },
	}
	entryByDate = Dated[model.TimeEntry]{
		Entity: "time_entry", Field: "start_time",
		ID:      func(e model.TimeEntry) string { return e.ID },
		Date:    entryDateOf,
		FieldOf: entryDateField,
	}
)
