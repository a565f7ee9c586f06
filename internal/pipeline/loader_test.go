package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/opsdash/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

func TestLoad_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, filepath.Join(dir, "finance.jsonl"),
		`{"type":"payment","id":"p1","amount":100,"payment_date":"2024-01-15"}`,
		`{"type":"expense","id":"e1","amount":20,"date":"2024-01-16"}`,
		`{"type":"payment", oops`,
	)
	writeLines(t, filepath.Join(dir, "work", "time.jsonl"),
		`{"type":"time_entry","id":"t1","start_time":"2024-01-15T09:00:00","duration_minutes":30}`,
	)

	var last atomic.Int64
	res, err := Load(dir, func(cur, total int) {
		last.Store(int64(cur))
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, 1, res.ParseErrors)
	assert.Len(t, res.Snapshot.Payments, 1)
	assert.Len(t, res.Snapshot.Expenses, 1)
	assert.Len(t, res.Snapshot.TimeEntries, 1)
	assert.EqualValues(t, 2, last.Load())
}

func TestLoad_MissingDir(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Zero(t, res.TotalFiles)
	assert.Zero(t, res.Snapshot.Len())
}

func TestSyncCache_Incremental(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	b := filepath.Join(dir, "b.jsonl")
	writeLines(t, a, `{"type":"task","id":"k1","title":"one","status":"todo"}`)
	writeLines(t, b, `{"type":"task","id":"k2","title":"two","status":"todo"}`)

	st, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	ctx := context.Background()

	res, err := SyncCache(dir, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reparsed)
	assert.Zero(t, res.CacheHits)

	res, err = SyncCache(dir, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CacheHits)
	assert.Zero(t, res.Reparsed)

	// Change a, delete b.
	writeLines(t, a,
		`{"type":"task","id":"k1","title":"one","status":"todo"}`,
		`{"type":"task","id":"k3","title":"three","status":"todo"}`,
	)
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(a, future, future))
	require.NoError(t, os.Remove(b))

	res, err = SyncCache(dir, st, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reparsed)
	assert.Equal(t, 1, res.Removed)

	tasks, err := st.Tasks(ctx)
	require.NoError(t, err)
	var ids []string
	for _, k := range tasks {
		ids = append(ids, k.ID)
	}
	assert.ElementsMatch(t, []string{"k1", "k3"}, ids)

	// The store serves as a Source for the orchestrator.
	r, err := NewOrchestrator(st).Build(ctx, Request{View: ViewDeadlines, WindowMonths: 6})
	require.NoError(t, err)
	assert.Empty(t, r.Deadlines)
}

func TestDirs_RespectXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xc")
	t.Setenv("XDG_DATA_HOME", "/tmp/xd")
	assert.Equal(t, filepath.Join("/tmp/xc", "opsdash", "records.db"), CachePath())
	assert.Equal(t, filepath.Join("/tmp/xd", "opsdash"), DataDir())
}
