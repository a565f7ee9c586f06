package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// ErrInvalidRequest is returned for report requests that violate the
// calculators' parameter contract.
var ErrInvalidRequest = errors.New("invalid report request")

// View names a dashboard report.
type View string

// Available views. ViewOverview runs every calculator.
const (
	ViewOverview      View = "overview"
	ViewRevenue       View = "revenue"
	ViewExpenses      View = "expenses"
	ViewCashFlow      View = "cashflow"
	ViewProfitability View = "profitability"
	ViewHeatmap       View = "heatmap"
	ViewTimesheet     View = "timesheet"
	ViewGoals         View = "goals"
	ViewDeadlines     View = "deadlines"
)

// Views lists every view in display order.
var Views = []View{
	ViewOverview, ViewRevenue, ViewExpenses, ViewCashFlow, ViewProfitability,
	ViewHeatmap, ViewTimesheet, ViewGoals, ViewDeadlines,
}

var viewNeeds = map[View]Need{
	ViewOverview:      NeedAll,
	ViewRevenue:       NeedPayments,
	ViewExpenses:      NeedExpenses,
	ViewCashFlow:      NeedInvoices | NeedExpenses,
	ViewProfitability: NeedProjects | NeedTimeEntries,
	ViewHeatmap:       NeedTimeEntries,
	ViewTimesheet:     NeedTimeEntries,
	ViewGoals:         NeedGoals | NeedPayments | NeedExpenses,
	ViewDeadlines:     NeedTasks | NeedProjects,
}

// ParseView resolves a view name, case-insensitively.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := viewNeeds[v]; !ok {
		return "", fmt.Errorf("%w: unknown view %q", ErrInvalidRequest, s)
	}
	return v, nil
}

// Needs returns the collections a view reads.
func Needs(v View) Need {
	return viewNeeds[v]
}

// Request parameterizes one report. A zero Now is replaced by the current
// time at the orchestrator boundary.
type Request struct {
	View         View
	Now          time.Time
	HourlyRate   float64
	WindowMonths int
}

// Validate checks the request against the calculators' parameter contract.
func (r Request) Validate() error {
	if _, ok := viewNeeds[r.View]; !ok {
		return fmt.Errorf("%w: unknown view %q", ErrInvalidRequest, r.View)
	}
	if r.WindowMonths != 6 && r.WindowMonths != 12 {
		return fmt.Errorf("%w: window must be 6 or 12 months, got %d", ErrInvalidRequest, r.WindowMonths)
	}
	if math.IsNaN(r.HourlyRate) || math.IsInf(r.HourlyRate, 0) {
		return fmt.Errorf("%w: hourly rate must be a finite number", ErrInvalidRequest)
	}
	if r.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly rate must not be negative", ErrInvalidRequest)
	}
	return nil
}

// Orchestrator fetches the collections a view needs and assembles its report.
// It holds no state between calls.
type Orchestrator struct {
	src   Source
	clock func() time.Time
}

// NewOrchestrator returns an orchestrator reading from src.
func NewOrchestrator(src Source) *Orchestrator {
	return &Orchestrator{src: src, clock: time.Now}
}

// Build validates req, fetches the needed collections and assembles the report.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*model.Report, error) {
	if req.Now.IsZero() {
		req.Now = o.clock()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap, err := Fetch(ctx, o.src, Needs(req.View))
	if err != nil {
		return nil, fmt.Errorf("building %s report: %w", req.View, err)
	}
	return Assemble(req, snap), nil
}

// Assemble runs the calculators for req.View over snap. It assumes req is valid.
func Assemble(req Request, snap model.Snapshot) *model.Report {
	now := req.Now
	all := req.View == ViewOverview
	want := func(v View) bool { return all || req.View == v }

	r := &model.Report{
		View:         string(req.View),
		GeneratedAt:  now,
		HourlyRate:   req.HourlyRate,
		WindowMonths: req.WindowMonths,
	}
	var sk skipSet

	if want(ViewRevenue) {
		pts, s := RevenueTrend(snap.Payments, now, req.WindowMonths)
		r.Revenue = pts
		sk.add(s)
	}
	if want(ViewExpenses) {
		shares, s := ExpenseBreakdown(snap.Expenses, now)
		r.Expenses = shares
		sk.add(s)
	}
	if want(ViewCashFlow) {
		months, s := CashFlowForecast(snap.Invoices, snap.Expenses, now)
		r.CashFlow = months
		sk.add(s)
	}
	if want(ViewProfitability) {
		r.Projects = ProjectProfitability(snap.Projects, snap.TimeEntries, req.HourlyRate)
	}
	if want(ViewHeatmap) {
		h, s := ProductivityHeatmap(snap.TimeEntries)
		r.Heatmap = &h
		sk.add(s)
	}
	if want(ViewTimesheet) {
		w, s := TimeTrackingSummary(snap.TimeEntries, now)
		r.Week = &w
		sk.add(s)
	}
	if want(ViewGoals) {
		m, s := ThisMonthMetrics(snap.Payments, snap.Expenses, now)
		r.Month = &m
		r.Goals = GoalProgress(snap.Goals, m)
		sk.add(s)
	}
	if want(ViewDeadlines) {
		d, s := DeadlineTriage(snap.Tasks, snap.Projects, now)
		r.Deadlines = d
		sk.add(s)
	}

	r.Skipped = sk.list
	if r.Skipped == nil {
		r.Skipped = []model.SkippedRecord{}
	}
	return r
}

// skipSet collects skipped records, dropping repeats reported by more than
// one calculator.
type skipSet struct {
	seen map[model.SkippedRecord]struct{}
	list []model.SkippedRecord
}

func (s *skipSet) add(recs []model.SkippedRecord) {
	if s.seen == nil {
		s.seen = make(map[model.SkippedRecord]struct{})
	}
	for _, r := range recs {
		if _, dup := s.seen[r]; dup {
			continue
		}
		s.seen[r] = struct{}{}
		s.list = append(s.list, r)
	}
}
