package source

import "github.com/theirongolddev/opsdash/internal/model"

// Record type tags carried in the top-level "type" field of each export line.
const (
	TypeTimeEntry = "time_entry"
	TypeInvoice   = "invoice"
	TypePayment   = "payment"
	TypeExpense   = "expense"
	TypeProject   = "project"
	TypeGoal      = "goal"
	TypeTask      = "task"
)

// DiscoveredFile is an export file found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string // path relative to the data directory
}

// ParseResult holds the records decoded from a single export file.
type ParseResult struct {
	Records     model.Snapshot
	Lines       int
	ParseErrors int
	Err         error
}

// taskLine is the on-disk shape of a task record.
type taskLine struct {
	Type string `json:"type"`
	model.Task
}
