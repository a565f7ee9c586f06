package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.Local)

func snapshotOpener(snap *model.Snapshot) Opener {
	return func(context.Context) (pipeline.Source, func(), error) {
		return pipeline.SnapshotSource{Snapshot: *snap}, func() {}, nil
	}
}

func newTestService(t *testing.T, open Opener) *Service {
	t.Helper()
	s := New(Config{
		DataDir:      t.TempDir(),
		HourlyRate:   50,
		WindowMonths: 6,
		Interval:     10 * time.Second,
		EventsBuffer: 10,
		Open:         open,
		Logger:       zerolog.New(zerolog.NewTestWriter(t)),
	})
	s.clock = func() time.Time { return fixedNow }
	return s
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		TimeEntries: []model.TimeEntry{
			{ID: "t1", ProjectID: "p1", StartTime: "2024-03-04T09:00:00", DurationMinutes: 240, IsBillable: true},
			{ID: "t2", ProjectID: "p1", StartTime: "2024-03-05T09:00:00", DurationMinutes: 120},
		},
		Invoices: []model.Invoice{
			{ID: "i1", Status: model.InvoiceSent, TotalAmount: 800, DueDate: "2024-04-01"},
		},
		Payments: []model.Payment{
			{ID: "pay1", Amount: 3000, PaymentDate: "2024-03-02"},
		},
		Expenses: []model.Expense{
			{ID: "e1", Category: "software", Amount: 500, Date: "2024-03-03"},
		},
		Tasks: []model.Task{
			{ID: "k1", Title: "Send invoice", DueDate: "2024-03-01", Status: "todo"},
			{ID: "k2", Title: "Call client", DueDate: "2024-03-07", Status: "todo"},
		},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{RevenueThisMonth: 1000, ExpensesThisMonth: 200, Outstanding: 800, WeekHours: 10, Overdue: 1}
	curr := Snapshot{RevenueThisMonth: 1500, ExpensesThisMonth: 200, Outstanding: 300, WeekHours: 12.5, Overdue: 0, DueSoon: 2}

	d := diffSnapshots(prev, curr)
	assert.InDelta(t, 500, d.RevenueThisMonth, 1e-9)
	assert.Zero(t, d.ExpensesThisMonth)
	assert.InDelta(t, -500, d.Outstanding, 1e-9)
	assert.InDelta(t, 2.5, d.WeekHours, 1e-9)
	assert.Equal(t, -1, d.Overdue)
	assert.Equal(t, 2, d.DueSoon)
	assert.False(t, d.isZero())

	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		DataDir:      ".",
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.EqualValues(t, 2, s.events[0].ID)
	assert.EqualValues(t, 3, s.events[1].ID)
}

func TestPollOnce_SnapshotThenDelta(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))

	s.pollOnce(context.Background())
	st := s.snapshotStatus()
	assert.EqualValues(t, 1, st.PollCount)
	assert.Empty(t, st.LastError)
	assert.InDelta(t, 3000, st.Summary.RevenueThisMonth, 1e-9)
	assert.InDelta(t, 500, st.Summary.ExpensesThisMonth, 1e-9)
	assert.InDelta(t, 800, st.Summary.Outstanding, 1e-9)
	assert.InDelta(t, 6, st.Summary.WeekHours, 1e-9)
	assert.InDelta(t, 4, st.Summary.BillableHours, 1e-9)
	assert.Equal(t, 1, st.Summary.Overdue)
	assert.Equal(t, 1, st.Summary.DueSoon)
	assert.Equal(t, 1, st.EventCount)

	// Unchanged data publishes nothing.
	s.pollOnce(context.Background())
	assert.Equal(t, 1, s.snapshotStatus().EventCount)

	snap.Payments = append(snap.Payments, model.Payment{ID: "pay2", Amount: 250, PaymentDate: "2024-03-05"})
	s.pollOnce(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2)
	assert.Equal(t, EventSnapshot, s.events[0].Type)
	assert.Equal(t, EventDelta, s.events[1].Type)
	assert.InDelta(t, 250, s.events[1].Delta.RevenueThisMonth, 1e-9)
}

func TestPollOnce_OpenFailureRecordsError(t *testing.T) {
	s := newTestService(t, func(context.Context) (pipeline.Source, func(), error) {
		return nil, nil, errors.New("disk gone")
	})

	s.pollOnce(context.Background())
	st := s.snapshotStatus()
	assert.EqualValues(t, 1, st.PollCount)
	assert.Contains(t, st.LastError, "disk gone")
	assert.Zero(t, st.EventCount)
}

func TestHandler_Health(t *testing.T) {
	s := newTestService(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandler_RequestIDPassthrough(t *testing.T) {
	s := newTestService(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHandler_Status(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))
	s.pollOnce(context.Background())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.EqualValues(t, 1, st.PollCount)
	assert.InDelta(t, 50, st.HourlyRate, 1e-9)
	assert.Equal(t, 6, st.WindowMonths)
	assert.InDelta(t, 3000, st.Summary.RevenueThisMonth, 1e-9)
}

func TestHandler_Events(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))
	s.pollOnce(context.Background())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var events []Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)
}

func TestHandler_Report(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/revenue?window=12&now=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var r model.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	assert.Equal(t, "revenue", r.View)
	assert.Equal(t, 12, r.WindowMonths)
	require.Len(t, r.Revenue, 12)
	assert.InDelta(t, 3000, r.Revenue[11].Revenue, 1e-9)
	assert.Nil(t, r.Heatmap)
}

func TestHandler_ReportRateOverride(t *testing.T) {
	snap := sampleSnapshot()
	snap.Projects = []model.Project{{ID: "p1", Name: "Site", Status: "active"}}
	s := newTestService(t, snapshotOpener(&snap))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/profitability?rate=100", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var r model.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	require.Len(t, r.Projects, 1)
	assert.InDelta(t, 600, r.Projects[0].Cost, 1e-9)
}

func TestHandler_ReportBadRequest(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))

	for _, path := range []string{
		"/v1/reports/sessions",
		"/v1/reports/revenue?window=3",
		"/v1/reports/revenue?window=six",
		"/v1/reports/revenue?rate=-5",
		"/v1/reports/revenue?rate=abc",
		"/v1/reports/profitability?rate=NaN",
		"/v1/reports/profitability?rate=Inf",
		"/v1/reports/profitability?rate=-Infinity",
		"/v1/reports/revenue?now=yesterday",
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body), path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	writeJSON(rec, req, http.StatusOK, map[string]float64{"x": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "encoding response", body["error"])
}

func TestHandler_ReportUpstreamFailure(t *testing.T) {
	s := newTestService(t, func(context.Context) (pipeline.Source, func(), error) {
		return nil, nil, errors.New("cache locked")
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/goals", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "cache locked")
}

func TestHandler_StreamSendsCurrentSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))
	s.pollOnce(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return s.snapshotStatus().SubscriberCount == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: snapshot\n")
	assert.Zero(t, s.snapshotStatus().SubscriberCount)
}

func TestHandler_CORS(t *testing.T) {
	snap := sampleSnapshot()
	s := newTestService(t, snapshotOpener(&snap))
	s.cfg.AllowedOrigins = []string{"http://localhost:5173"}
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code, "disallowed origins still get a response")
}
