// Package store provides a SQLite-backed cache of parsed export records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const dsnPragmas = "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)"

// Store caches the records of each export file, keyed by file path.
// It serves the cached records back as entity collections.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path and migrates it.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// recordTables lists every per-file record table.
var recordTables = []string{
	"time_entries", "invoices", "payments", "expenses", "projects", "goals", "tasks",
}

// SaveFile replaces every cached record for path with recs and updates its tracker entry.
func (s *Store) SaveFile(path string, recs model.Snapshot, mtimeNs, sizeBytes int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes, parsed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			mtime_ns = excluded.mtime_ns, size_bytes = excluded.size_bytes, parsed_at = excluded.parsed_at`,
		path, mtimeNs, sizeBytes, now)
	if err != nil {
		return fmt.Errorf("tracking %s: %w", path, err)
	}

	for _, table := range recordTables {
		//nolint:gosec // table names come from a fixed list
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE file_path = ?", path); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, e := range recs.TimeEntries {
		_, err = tx.Exec(`INSERT INTO time_entries
			(file_path, id, project_id, task_id, description, start_time, end_time,
			 duration_minutes, is_billable, created_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, e.ID, e.ProjectID, e.TaskID, e.Description, e.StartTime, e.EndTime,
			e.DurationMinutes, boolInt(e.IsBillable), e.CreatedDate)
		if err != nil {
			return fmt.Errorf("inserting time entry %s: %w", e.ID, err)
		}
	}
	for _, inv := range recs.Invoices {
		_, err = tx.Exec(`INSERT INTO invoices
			(file_path, id, client_id, project_id, invoice_number, status,
			 total_amount, paid_amount, remaining_amount, issue_date, due_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, inv.ID, inv.ClientID, inv.ProjectID, inv.Number, string(inv.Status),
			inv.TotalAmount, inv.PaidAmount, nullFloat(inv.RemainingAmount), inv.IssueDate, inv.DueDate)
		if err != nil {
			return fmt.Errorf("inserting invoice %s: %w", inv.ID, err)
		}
	}
	for _, p := range recs.Payments {
		_, err = tx.Exec(`INSERT INTO payments
			(file_path, id, invoice_id, amount, payment_date, payment_method)
			VALUES (?, ?, ?, ?, ?, ?)`,
			path, p.ID, p.InvoiceID, p.Amount, p.PaymentDate, p.Method)
		if err != nil {
			return fmt.Errorf("inserting payment %s: %w", p.ID, err)
		}
	}
	for _, e := range recs.Expenses {
		_, err = tx.Exec(`INSERT INTO expenses
			(file_path, id, category, description, amount, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			path, e.ID, e.Category, e.Description, e.Amount, e.Date)
		if err != nil {
			return fmt.Errorf("inserting expense %s: %w", e.ID, err)
		}
	}
	for _, p := range recs.Projects {
		_, err = tx.Exec(`INSERT INTO projects
			(file_path, id, client_id, name, budget, estimated_hours, completion_pct, status, due_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, p.ID, p.ClientID, p.Name, nullFloat(p.Budget), nullFloat(p.EstimatedHours),
			nullFloat(p.CompletionPercentage), p.Status, p.DueDate)
		if err != nil {
			return fmt.Errorf("inserting project %s: %w", p.ID, err)
		}
	}
	for _, g := range recs.Goals {
		_, err = tx.Exec(`INSERT INTO goals
			(file_path, id, title, goal_type, target_amount, current_amount, period, is_active, achieved)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, g.ID, g.Title, string(g.GoalType), g.TargetAmount, nullFloat(g.CurrentAmount),
			g.Period, boolInt(g.IsActive), boolInt(g.Achieved))
		if err != nil {
			return fmt.Errorf("inserting goal %s: %w", g.ID, err)
		}
	}
	for _, t := range recs.Tasks {
		_, err = tx.Exec(`INSERT INTO tasks
			(file_path, id, project_id, title, due_date, status, priority)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, t.ID, t.ProjectID, t.Title, t.DueDate, t.Status, t.Priority)
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// RemoveFile drops a file's tracker entry and, by cascade, its records.
func (s *Store) RemoveFile(path string) error {
	_, err := s.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", path)
	return err
}

// Counts returns the number of cached rows per record table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(recordTables))
	for _, table := range recordTables {
		var n int
		//nolint:gosec // table names come from a fixed list
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}

// TimeEntries returns every cached time entry.
func (s *Store) TimeEntries(ctx context.Context) ([]model.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, project_id, task_id, description, start_time, end_time,
		duration_minutes, is_billable, created_date
		FROM time_entries ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.TimeEntry
	for rows.Next() {
		var e model.TimeEntry
		var billable int
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.Description, &e.StartTime,
			&e.EndTime, &e.DurationMinutes, &billable, &e.CreatedDate); err != nil {
			return nil, err
		}
		e.IsBillable = billable != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Invoices returns every cached invoice.
func (s *Store) Invoices(ctx context.Context) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, client_id, project_id, invoice_number, status,
		total_amount, paid_amount, remaining_amount, issue_date, due_date
		FROM invoices ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		var status string
		var remaining sql.NullFloat64
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.ProjectID, &inv.Number, &status,
			&inv.TotalAmount, &inv.PaidAmount, &remaining, &inv.IssueDate, &inv.DueDate); err != nil {
			return nil, err
		}
		inv.Status = model.InvoiceStatus(status)
		inv.RemainingAmount = floatPtr(remaining)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Payments returns every cached payment.
func (s *Store) Payments(ctx context.Context) ([]model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, invoice_id, amount, payment_date, payment_method
		FROM payments ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Method); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Expenses returns every cached expense.
func (s *Store) Expenses(ctx context.Context) ([]model.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, category, description, amount, date
		FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Description, &e.Amount, &e.Date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Projects returns every cached project.
func (s *Store) Projects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, client_id, name, budget, estimated_hours, completion_pct, status, due_date
		FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var budget, est, pct sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &budget, &est, &pct,
			&p.Status, &p.DueDate); err != nil {
			return nil, err
		}
		p.Budget = floatPtr(budget)
		p.EstimatedHours = floatPtr(est)
		p.CompletionPercentage = floatPtr(pct)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Goals returns every cached financial goal.
func (s *Store) Goals(ctx context.Context) ([]model.FinancialGoal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, title, goal_type, target_amount, current_amount, period, is_active, achieved
		FROM goals ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.FinancialGoal
	for rows.Next() {
		var g model.FinancialGoal
		var goalType string
		var current sql.NullFloat64
		var active, achieved int
		if err := rows.Scan(&g.ID, &g.Title, &goalType, &g.TargetAmount, &current,
			&g.Period, &active, &achieved); err != nil {
			return nil, err
		}
		g.GoalType = model.GoalType(goalType)
		g.CurrentAmount = floatPtr(current)
		g.IsActive = active != 0
		g.Achieved = achieved != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

// Tasks returns every cached task.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, project_id, title, due_date, status, priority
		FROM tasks ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.DueDate, &t.Status, &t.Priority); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
