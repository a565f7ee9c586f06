// Package model defines the entity records and the derived metric types.
package model

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

// Invoice statuses.
const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoiceViewed    InvoiceStatus = "viewed"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// GoalType selects which metric a financial goal tracks.
type GoalType string

// Goal types.
const (
	GoalRevenue GoalType = "revenue"
	GoalProfit  GoalType = "profit"
	GoalOther   GoalType = "other"
)

// TimeEntry is a tracked block of work.
// Date fields hold the raw upstream strings; they are parsed by the analytics layer.
type TimeEntry struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	TaskID          string  `json:"task_id,omitempty"`
	Description     string  `json:"description,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time,omitempty"`
	DurationMinutes float64 `json:"duration_minutes"`
	IsBillable      bool    `json:"is_billable"`
	CreatedDate     string  `json:"created_date,omitempty"`
}

// Invoice is a bill sent to a client.
// RemainingAmount is trusted as given; nil means the field was absent upstream.
type Invoice struct {
	ID              string        `json:"id"`
	ClientID        string        `json:"client_id"`
	ProjectID       string        `json:"project_id,omitempty"`
	Number          string        `json:"invoice_number,omitempty"`
	Status          InvoiceStatus `json:"status"`
	TotalAmount     float64       `json:"total_amount"`
	PaidAmount      float64       `json:"paid_amount"`
	RemainingAmount *float64      `json:"remaining_amount"`
	IssueDate       string        `json:"issue_date,omitempty"`
	DueDate         string        `json:"due_date,omitempty"`
}

// Payment is money received against an invoice.
type Payment struct {
	ID          string  `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	Method      string  `json:"payment_method,omitempty"`
}

// Expense is a business cost.
type Expense struct {
	ID          string  `json:"id"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

// Project is a body of client work with an optional budget.
type Project struct {
	ID                   string   `json:"id"`
	ClientID             string   `json:"client_id"`
	Name                 string   `json:"name"`
	Budget               *float64 `json:"budget"`
	EstimatedHours       *float64 `json:"estimated_hours"`
	CompletionPercentage *float64 `json:"completion_percentage"`
	Status               string   `json:"status"`
	DueDate              string   `json:"due_date,omitempty"`
}

// FinancialGoal is a revenue, profit, or free-form money target.
type FinancialGoal struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	GoalType      GoalType `json:"goal_type"`
	TargetAmount  float64  `json:"target_amount"`
	CurrentAmount *float64 `json:"current_amount"`
	Period        string   `json:"period,omitempty"`
	IsActive      bool     `json:"is_active"`
	Achieved      bool     `json:"achieved"`
}

// Task is a unit of project work. Only deadline triage reads it.
type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Title     string `json:"title"`
	DueDate   string `json:"due_date,omitempty"`
	Status    string `json:"status"`
	Priority  string `json:"priority,omitempty"`
}

// Snapshot is one immutable set of entity collections supplied to the engine.
type Snapshot struct {
	TimeEntries []TimeEntry     `json:"time_entries"`
	Invoices    []Invoice       `json:"invoices"`
	Payments    []Payment       `json:"payments"`
	Expenses    []Expense       `json:"expenses"`
	Projects    []Project       `json:"projects"`
	Goals       []FinancialGoal `json:"goals"`
	Tasks       []Task          `json:"tasks"`
}

// Len returns the total number of records across all collections.
func (s Snapshot) Len() int {
	return len(s.TimeEntries) + len(s.Invoices) + len(s.Payments) +
		len(s.Expenses) + len(s.Projects) + len(s.Goals) + len(s.Tasks)
}

// Merge appends every collection of o to s.
func (s *Snapshot) Merge(o Snapshot) {
	s.TimeEntries = append(s.TimeEntries, o.TimeEntries...)
	s.Invoices = append(s.Invoices, o.Invoices...)
	s.Payments = append(s.Payments, o.Payments...)
	s.Expenses = append(s.Expenses, o.Expenses...)
	s.Projects = append(s.Projects, o.Projects...)
	s.Goals = append(s.Goals, o.Goals...)
	s.Tasks = append(s.Tasks, o.Tasks...)
}
