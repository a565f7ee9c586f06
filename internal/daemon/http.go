package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Handler returns the daemon's HTTP routes.
func (s *Service) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(requestLogger(&s.log))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.handleHealth)
	router.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
		r.Get("/reports/{view}", s.handleReport)
	})

	if len(s.cfg.AllowedOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler(router)
}

// requestLogger tags each request with an id and puts a scoped logger in its context.
func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := req.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			reqLogger := logger.With().
				Str("request_id", id).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", req.RemoteAddr).
				Logger()

			ctx := reqLogger.WithContext(req.Context())
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, r, http.StatusOK, events)
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	req, err := s.parseReportRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	report, err := s.build(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err)
		return
	case err != nil:
		log.Error().Err(err).Str("view", string(req.View)).Msg("report failed")
		writeError(w, r, http.StatusBadGateway, err)
		return
	}

	if len(report.Skipped) > 0 {
		log.Warn().Int("skipped", len(report.Skipped)).Str("view", string(req.View)).Msg("records skipped")
	}
	writeJSON(w, r, http.StatusOK, report)
}

// parseReportRequest reads the view from the path and rate, window and now
// from the query, falling back to the service defaults.
func (s *Service) parseReportRequest(r *http.Request) (pipeline.Request, error) {
	req := pipeline.Request{
		View:         pipeline.View(chi.URLParam(r, "view")),
		HourlyRate:   s.cfg.HourlyRate,
		WindowMonths: s.cfg.WindowMonths,
		Now:          s.clock(),
	}

	q := r.URL.Query()
	if v := q.Get("rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: rate %q is not a number", pipeline.ErrInvalidRequest, v)
		}
		req.HourlyRate = rate
	}
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: window %q is not an integer", pipeline.ErrInvalidRequest, v)
		}
		req.WindowMonths = n
	}
	if v := q.Get("now"); v != "" {
		t, ok := pipeline.ParseDate(v)
		if !ok {
			return req, fmt.Errorf("%w: now %q is not a date", pipeline.ErrInvalidRequest, v)
		}
		req.Now = t
	}
	return req, req.Validate()
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

// writeJSON encodes v before committing the status, so an unencodable value
// turns into a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("encoding response")
		buf.Reset()
		buf.WriteString(`{"error":"encoding response"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, map[string]string{"error": err.Error()})
}
