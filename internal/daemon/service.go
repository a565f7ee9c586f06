// Package daemon provides the long-running background dashboard service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/rs/zerolog"
)

// Opener yields a Source for one poll or request. The returned func releases it.
type Opener func(ctx context.Context) (pipeline.Source, func(), error)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	HourlyRate   float64
	WindowMonths int
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Open         Opener
	Logger       zerolog.Logger

	// AllowedOrigins enables CORS for these browser origins. Empty disables it.
	AllowedOrigins []string
}

// Snapshot is a compact KPI state for status/event payloads.
type Snapshot struct {
	At                time.Time `json:"at"`
	RevenueThisMonth  float64   `json:"revenue_this_month"`
	ExpensesThisMonth float64   `json:"expenses_this_month"`
	ProfitThisMonth   float64   `json:"profit_this_month"`
	Outstanding       float64   `json:"outstanding"`
	WeekHours         float64   `json:"week_hours"`
	BillableHours     float64   `json:"billable_hours"`
	Overdue           int       `json:"overdue"`
	DueSoon           int       `json:"due_soon"`
	GoalsOnTrack      int       `json:"goals_on_track"`
	Skipped           int       `json:"skipped"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	RevenueThisMonth  float64 `json:"revenue_this_month"`
	ExpensesThisMonth float64 `json:"expenses_this_month"`
	Outstanding       float64 `json:"outstanding"`
	WeekHours         float64 `json:"week_hours"`
	Overdue           int     `json:"overdue"`
	DueSoon           int     `json:"due_soon"`
}

func (d Delta) isZero() bool {
	return d.RevenueThisMonth == 0 &&
		d.ExpensesThisMonth == 0 &&
		d.Outstanding == 0 &&
		d.WeekHours == 0 &&
		d.Overdue == 0 &&
		d.DueSoon == 0
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "kpi_delta"
)

// Event is emitted whenever the KPI snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	HourlyRate      float64   `json:"hourly_rate"`
	WindowMonths    int       `json:"window_months"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg   Config
	log   zerolog.Logger
	clock func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.WindowMonths == 0 {
		cfg.WindowMonths = pipeline.DefaultWindowMonths
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger,
		clock:     time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// build runs the orchestrator against a freshly opened source.
func (s *Service) build(ctx context.Context, req pipeline.Request) (*model.Report, error) {
	src, release, err := s.cfg.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: opening records: %w", pipeline.ErrUpstreamFetch, err)
	}
	defer release()
	return pipeline.NewOrchestrator(src).Build(ctx, req)
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.clock()
	r, err := s.build(ctx, pipeline.Request{
		View:         pipeline.ViewOverview,
		Now:          now,
		HourlyRate:   s.cfg.HourlyRate,
		WindowMonths: s.cfg.WindowMonths,
	})
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("poll failed")
		return
	}

	snap := snapshotFromReport(r)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventDelta,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
	s.log.Debug().Int("skipped", snap.Skipped).Dur("took", s.clock().Sub(now)).Msg("poll complete")
}

func snapshotFromReport(r *model.Report) Snapshot {
	snap := Snapshot{At: r.GeneratedAt, Skipped: len(r.Skipped)}
	if r.Month != nil {
		snap.RevenueThisMonth = r.Month.Revenue
		snap.ProfitThisMonth = r.Month.Profit
	}
	for _, e := range r.Expenses {
		snap.ExpensesThisMonth += e.Amount
	}
	for _, m := range r.CashFlow {
		snap.Outstanding += m.ExpectedIncome
	}
	if r.Week != nil {
		snap.WeekHours = r.Week.TotalHours
		snap.BillableHours = r.Week.BillableHours
	}
	for _, d := range r.Deadlines {
		switch d.Urgency {
		case model.UrgencyOverdue:
			snap.Overdue++
		case model.UrgencyToday, model.UrgencySoon:
			snap.DueSoon++
		}
	}
	for _, g := range r.Goals {
		if g.OnTrack {
			snap.GoalsOnTrack++
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		RevenueThisMonth:  curr.RevenueThisMonth - prev.RevenueThisMonth,
		ExpensesThisMonth: curr.ExpensesThisMonth - prev.ExpensesThisMonth,
		Outstanding:       curr.Outstanding - prev.Outstanding,
		WeekHours:         curr.WeekHours - prev.WeekHours,
		Overdue:           curr.Overdue - prev.Overdue,
		DueSoon:           curr.DueSoon - prev.DueSoon,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		HourlyRate:      s.cfg.HourlyRate,
		WindowMonths:    s.cfg.WindowMonths,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
