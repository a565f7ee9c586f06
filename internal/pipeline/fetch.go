package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/opsdash/internal/model"

	"golang.org/x/sync/errgroup"
)

// ErrUpstreamFetch marks a failure to obtain an entity collection. The
// analytics core is never run on a partially fetched snapshot.
var ErrUpstreamFetch = errors.New("upstream fetch failed")

// Source supplies complete entity collections. Implementations must be safe
// for concurrent use; Fetch calls the methods in parallel.
type Source interface {
	TimeEntries(ctx context.Context) ([]model.TimeEntry, error)
	Invoices(ctx context.Context) ([]model.Invoice, error)
	Payments(ctx context.Context) ([]model.Payment, error)
	Expenses(ctx context.Context) ([]model.Expense, error)
	Projects(ctx context.Context) ([]model.Project, error)
	Goals(ctx context.Context) ([]model.FinancialGoal, error)
	Tasks(ctx context.Context) ([]model.Task, error)
}

// Need is a set of entity collections.
type Need uint8

// Collections a view can need.
const (
	NeedTimeEntries Need = 1 << iota
	NeedInvoices
	NeedPayments
	NeedExpenses
	NeedProjects
	NeedGoals
	NeedTasks

	NeedAll = NeedTimeEntries | NeedInvoices | NeedPayments | NeedExpenses |
		NeedProjects | NeedGoals | NeedTasks
)

// Has reports whether n includes every collection in o.
func (n Need) Has(o Need) bool { return n&o == o }

// Fetch pulls the needed collections from src concurrently. Either every
// needed collection is returned or the error wraps ErrUpstreamFetch.
func Fetch(ctx context.Context, src Source, need Need) (model.Snapshot, error) {
	var snap model.Snapshot
	g, ctx := errgroup.WithContext(ctx)

	if need.Has(NeedTimeEntries) {
		g.Go(func() (err error) {
			snap.TimeEntries, err = src.TimeEntries(ctx)
			return wrapFetch("time entries", err)
		})
	}
	if need.Has(NeedInvoices) {
		g.Go(func() (err error) {
			snap.Invoices, err = src.Invoices(ctx)
			return wrapFetch("invoices", err)
		})
	}
	if need.Has(NeedPayments) {
		g.Go(func() (err error) {
			snap.Payments, err = src.Payments(ctx)
			return wrapFetch("payments", err)
		})
	}
	if need.Has(NeedExpenses) {
		g.Go(func() (err error) {
			snap.Expenses, err = src.Expenses(ctx)
			return wrapFetch("expenses", err)
		})
	}
	if need.Has(NeedProjects) {
		g.Go(func() (err error) {
			snap.Projects, err = src.Projects(ctx)
			return wrapFetch("projects", err)
		})
	}
	if need.Has(NeedGoals) {
		g.Go(func() (err error) {
			snap.Goals, err = src.Goals(ctx)
			return wrapFetch("goals", err)
		})
	}
	if need.Has(NeedTasks) {
		g.Go(func() (err error) {
			snap.Tasks, err = src.Tasks(ctx)
			return wrapFetch("tasks", err)
		})
	}

	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func wrapFetch(collection string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamFetch, collection, err)
}

// SnapshotSource serves an in-memory snapshot as a Source.
type SnapshotSource struct {
	Snapshot model.Snapshot
}

// TimeEntries implements Source.
func (s SnapshotSource) TimeEntries(context.Context) ([]model.TimeEntry, error) {
	return s.Snapshot.TimeEntries, nil
}

// Invoices implements Source.
func (s SnapshotSource) Invoices(context.Context) ([]model.Invoice, error) {
	return s.Snapshot.Invoices, nil
}

// Payments implements Source.
func (s SnapshotSource) Payments(context.Context) ([]model.Payment, error) {
	return s.Snapshot.Payments, nil
}

// Expenses implements Source.
func (s SnapshotSource) Expenses(context.Context) ([]model.Expense, error) {
	return s.Snapshot.Expenses, nil
}

// Projects implements Source.
func (s SnapshotSource) Projects(context.Context) ([]model.Project, error) {
	return s.Snapshot.Projects, nil
}

// Goals implements Source.
func (s SnapshotSource) Goals(context.Context) ([]model.FinancialGoal, error) {
	return s.Snapshot.Goals, nil
}

// Tasks implements Source.
func (s SnapshotSource) Tasks(context.Context) ([]model.Task, error) {
	return s.Snapshot.Tasks, nil
}
