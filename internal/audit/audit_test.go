package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*Result)
	return res, args.Error(1)
}

// blockingGenerator waits for release before answering.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGenerator) Generate(ctx context.Context, _ Request) (*Result, error) {
	close(b.started)
	select {
	case <-b.release:
		return &Result{Summary: "done"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestWizard_Success(t *testing.T) {
	req := Request{Focus: "cash flow"}
	want := &Result{Summary: "ok", Suggestions: []Suggestion{{Title: "Chase invoice 12"}}}

	g := new(mockGenerator)
	g.On("Generate", mock.Anything, req).Return(want, nil).Once()

	w := NewWizard()
	assert.Equal(t, StateInput, w.State())

	got, err := w.Run(context.Background(), g, req)
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, StateResult, w.State())

	res, oerr := w.Outcome()
	assert.Same(t, want, res)
	assert.NoError(t, oerr)
	g.AssertExpectations(t)
}

func TestWizard_Failure(t *testing.T) {
	boom := errors.New("upstream 500")
	g := new(mockGenerator)
	g.On("Generate", mock.Anything, mock.Anything).Return(nil, boom).Once()

	w := NewWizard()
	_, err := w.Run(context.Background(), g, Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, w.State())

	_, oerr := w.Outcome()
	assert.ErrorIs(t, oerr, boom)
}

func TestWizard_NilResultFails(t *testing.T) {
	g := new(mockGenerator)
	g.On("Generate", mock.Anything, mock.Anything).Return(nil, nil).Once()

	w := NewWizard()
	_, err := w.Run(context.Background(), g, Request{})
	assert.Error(t, err)
	assert.Equal(t, StateFailed, w.State())
}

func TestWizard_RunTwiceNeedsReset(t *testing.T) {
	g := new(mockGenerator)
	g.On("Generate", mock.Anything, mock.Anything).Return(&Result{}, nil).Twice()

	w := NewWizard()
	_, err := w.Run(context.Background(), g, Request{})
	require.NoError(t, err)

	_, err = w.Run(context.Background(), g, Request{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateResult, w.State())

	require.NoError(t, w.Reset())
	assert.Equal(t, StateInput, w.State())
	res, oerr := w.Outcome()
	assert.Nil(t, res)
	assert.NoError(t, oerr)

	_, err = w.Run(context.Background(), g, Request{})
	assert.NoError(t, err)
	g.AssertNumberOfCalls(t, "Generate", 2)
}

func TestWizard_LoadingState(t *testing.T) {
	g := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	w := NewWizard()

	done := make(chan error, 1)
	go func() {
		_, err := w.Run(context.Background(), g, Request{})
		done <- err
	}()

	<-g.started
	assert.Equal(t, StateLoading, w.State())
	assert.ErrorIs(t, w.Reset(), ErrInvalidTransition)

	_, err := w.Run(context.Background(), g, Request{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateResult, w.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "input", StateInput.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "result", StateResult.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestResultTasks(t *testing.T) {
	now := time.Date(2024, 3, 6, 15, 0, 0, 0, time.Local)
	r := &Result{Suggestions: []Suggestion{
		{Title: " Follow up on invoice ", ProjectID: "p1", Priority: "HIGH", DueInDays: 2},
		{Title: "   "},
		{Title: "Review rates", DueInDays: -4, Priority: "whenever"},
	}}

	tasks := r.Tasks(now)
	require.Len(t, tasks, 2)

	assert.Equal(t, "Follow up on invoice", tasks[0].Title)
	assert.Equal(t, "p1", tasks[0].ProjectID)
	assert.Equal(t, "2024-03-08", tasks[0].DueDate)
	assert.Equal(t, "high", tasks[0].Priority)
	assert.Equal(t, "todo", tasks[0].Status)
	_, err := uuid.Parse(tasks[0].ID)
	assert.NoError(t, err)

	assert.Equal(t, "2024-03-06", tasks[1].DueDate)
	assert.Equal(t, "medium", tasks[1].Priority)
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)

	var nilResult *Result
	assert.Nil(t, nilResult.Tasks(now))
}

func TestOpenWork(t *testing.T) {
	ps, ts := OpenWork(
		[]model.Project{{ID: "a", Status: "active"}, {ID: "b", Status: "Completed"}},
		[]model.Task{{ID: "x", Status: "todo"}, {ID: "y", Status: "done"}, {ID: "z", Status: "in_progress"}},
	)
	require.Len(t, ps, 1)
	assert.Equal(t, "a", ps[0].ID)
	require.Len(t, ts, 2)
	assert.Equal(t, "x", ts[0].ID)
	assert.Equal(t, "z", ts[1].ID)
}

func TestNewClient(t *testing.T) {
	assert.Nil(t, NewClient("", "key", ""))
	assert.Nil(t, NewClient("http://x", "  ", ""))
	c := NewClient("http://example.test/ ", "key", "m")
	require.NotNil(t, c)
	assert.Equal(t, "http://example.test", c.baseURL)
}

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audit", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "small", body["model"])
		assert.Equal(t, "pipeline", body["focus"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"Tighten follow-ups","suggestions":[{"title":"Send reminders","due_in_days":1}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "small")
	res, err := c.Generate(context.Background(), Request{Focus: "pipeline"})
	require.NoError(t, err)
	assert.Equal(t, "Tighten follow-ups", res.Summary)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, 1, res.Suggestions[0].DueInDays)
}

func TestClient_StatusErrors(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusUnauthorized:    ErrUnauthorized,
		http.StatusForbidden:       ErrUnauthorized,
		http.StatusTooManyRequests: ErrRateLimited,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := NewClient(srv.URL, "k", "").Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, want, "status %d", status)
		srv.Close()
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, "k", "").Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestClient_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"summary":"` + strings.Repeat("a", maxBodySize) + `"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "").Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestClient_AsWizardGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var g Generator = NewClient(srv.URL, "k", "")
	w := NewWizard()
	_, err := w.Run(context.Background(), g, Request{})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, StateFailed, w.State())
}
