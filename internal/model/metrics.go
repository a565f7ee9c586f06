package model

import "time"

// SkippedRecord identifies a record excluded from a date-bucketed aggregation
// because one of its date fields could not be parsed.
type SkippedRecord struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// RevenuePoint is one month of the revenue trend.
type RevenuePoint struct {
	Month        time.Time `json:"month"`
	Label        string    `json:"month_label"`
	Revenue      float64   `json:"revenue_total"`
	PaymentCount int       `json:"payment_count"`
}

// ExpenseShare is one category of the current month's expenses.
type ExpenseShare struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent_of_total"` // 0..1
}

// CashFlowMonth is one month of the cash-flow forecast.
type CashFlowMonth struct {
	Month             time.Time `json:"month"`
	Label             string    `json:"month_label"`
	ExpectedIncome    float64   `json:"expected_income"`
	ProjectedExpenses float64   `json:"projected_expenses"`
	NetCashFlow       float64   `json:"net_cash_flow"`
	InvoiceCount      int       `json:"invoice_count"`
}

// ProfitStatus classifies a project's profit.
type ProfitStatus string

// Profit classifications.
const (
	ProfitNA           ProfitStatus = "N/A"
	ProfitProfitable   ProfitStatus = "Profitable"
	ProfitUnprofitable ProfitStatus = "Unprofitable"
	ProfitBreakeven    ProfitStatus = "Breakeven"
)

// ProjectProfit is the profitability row for one project.
type ProjectProfit struct {
	ProjectID     string       `json:"project_id"`
	Name          string       `json:"name"`
	Budget        *float64     `json:"budget"`
	ActualHours   float64      `json:"actual_hours"`
	Cost          float64      `json:"cost"`
	Profit        *float64     `json:"profit"`
	EffectiveRate float64      `json:"effective_rate"`
	HoursVariance *float64     `json:"hours_variance"`
	Status        ProfitStatus `json:"status"`
}

// Heatmap holds minutes worked per weekday (Sunday = 0) and hour of day.
type Heatmap [7][24]float64

// Total returns the sum of all 168 cells.
func (h Heatmap) Total() float64 {
	var sum float64
	for d := range h {
		for hr := range h[d] {
			sum += h[d][hr]
		}
	}
	return sum
}

// HeatTier is the display bucket for a heatmap cell.
type HeatTier int

// Heat tiers, ordered by intensity.
const (
	HeatEmpty HeatTier = iota
	HeatLow
	HeatMedium
	HeatHigh
	HeatPeak
)

// WeekSummary is the tracked time of the Monday-to-Sunday week containing a reference day.
type WeekSummary struct {
	WeekStart      time.Time  `json:"week_start"`
	TotalHours     float64    `json:"total_hours"`
	BillableHours  float64    `json:"billable_hours"`
	BillableRatio  float64    `json:"billable_ratio"`
	TargetHours    float64    `json:"target_hours"`
	CompletionRate float64    `json:"completion_rate"` // percent of target, unclamped
	Daily          [7]float64 `json:"daily_hours"`     // Monday first
	EntryCount     int        `json:"entry_count"`
}

// MonthMetrics is the current-month bundle that revenue and profit goals compare against.
type MonthMetrics struct {
	Revenue float64 `json:"this_month_revenue"`
	Profit  float64 `json:"this_month_profit"`
}

// GoalProgress is the progress of one active goal.
type GoalProgress struct {
	GoalID       string   `json:"goal_id"`
	Title        string   `json:"title"`
	GoalType     GoalType `json:"goal_type"`
	TargetAmount float64  `json:"target_amount"`
	CurrentValue float64  `json:"current_value"`
	Progress     float64  `json:"progress"` // 0..100
	OnTrack      bool     `json:"on_track"`
}

// DeadlineKind names the source entity of a deadline.
type DeadlineKind string

// Deadline sources.
const (
	DeadlineProject DeadlineKind = "project"
	DeadlineTask    DeadlineKind = "task"
)

// Urgency classifies a deadline by calendar days remaining.
type Urgency string

// Urgency classes.
const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyToday    Urgency = "today"
	UrgencySoon     Urgency = "soon"
	UrgencyUpcoming Urgency = "upcoming"
)

// Deadline is one incomplete task or project with a due date.
type Deadline struct {
	Kind        DeadlineKind `json:"kind"`
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	ProjectID   string       `json:"project_id,omitempty"`
	DueDate     time.Time    `json:"due_date"`
	DaysUntil   int          `json:"days_until"`
	DaysOverdue int          `json:"days_overdue"`
	Urgency     Urgency      `json:"urgency"`
}

// Report is the assembled output of one orchestrator call.
// Sections that were not requested are nil.
type Report struct {
	View         string          `json:"view"`
	GeneratedAt  time.Time       `json:"generated_at"`
	HourlyRate   float64         `json:"hourly_rate"`
	WindowMonths int             `json:"window_months"`
	Month        *MonthMetrics   `json:"month"`
	Revenue      []RevenuePoint  `json:"revenue_trend"`
	Expenses     []ExpenseShare  `json:"expense_breakdown"`
	CashFlow     []CashFlowMonth `json:"cash_flow"`
	Projects     []ProjectProfit `json:"profitability"`
	Heatmap      *Heatmap        `json:"heatmap"`
	Week         *WeekSummary    `json:"time_tracking"`
	Goals        []GoalProgress  `json:"goals"`
	Deadlines    []Deadline      `json:"deadlines"`
	Skipped      []SkippedRecord `json:"skipped"`
}
