package tui

import (
	"context"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"
	"github.com/theirongolddev/opsdash/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Snapshot model.Snapshot
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Snapshot model.Snapshot
	LoadTime time.Duration
	Err      error
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadSnapshot reads every collection, through the SQLite cache when it can.
func loadSnapshot(dataDir string, useCache bool, progressFn pipeline.ProgressFunc) (model.Snapshot, error) {
	if useCache {
		st, err := store.Open(pipeline.CachePath())
		if err == nil {
			snap, err := cachedSnapshot(dataDir, st, progressFn)
			_ = st.Close()
			if err == nil {
				return snap, nil
			}
			log.Warn().Err(err).Msg("cache error, falling back to full parse")
		} else {
			log.Warn().Err(err).Msg("cache unavailable, doing full parse")
		}
	}

	result, err := pipeline.Load(dataDir, progressFn)
	if err != nil {
		return model.Snapshot{}, err
	}
	return result.Snapshot, nil
}

func cachedSnapshot(dataDir string, st *store.Store, progressFn pipeline.ProgressFunc) (model.Snapshot, error) {
	if _, err := pipeline.SyncCache(dataDir, st, progressFn); err != nil {
		return model.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return pipeline.Fetch(ctx, st, pipeline.NeedAll)
}

// loadDataCmd starts the data loading pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(dataDir string, useCache bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			snap, err := loadSnapshot(dataDir, useCache, progressFn)
			sub <- DataLoadedMsg{Snapshot: snap, LoadTime: time.Since(start), Err: err}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads the data in the background (no progress UI).
func refreshDataCmd(dataDir string, useCache bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		snap, err := loadSnapshot(dataDir, useCache, nil)
		return RefreshDataMsg{Snapshot: snap, LoadTime: time.Since(start), Err: err}
	}
}
