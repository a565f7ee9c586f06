package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildArgs(t *testing.T) {
	in := []string{"daemon", "--detach", "--addr", "127.0.0.1:9000", "--detach=true"}
	assert.Equal(t, []string{"daemon", "--addr", "127.0.0.1:9000", "--child"}, childArgs(in))
	assert.Equal(t, "--detach", in[1])
}

func TestPIDFile_WriteReadClear(t *testing.T) {
	p := pidFile(filepath.Join(t.TempDir(), "run", "opsdashd.pid"))
	require.NoError(t, p.claim())

	st := daemonState{PID: os.Getpid(), Addr: "127.0.0.1:8787", StartedAt: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, p.write(st))

	pid, err := p.pid()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	got, err := p.state()
	require.NoError(t, err)
	assert.Equal(t, st.Addr, got.Addr)
	assert.True(t, st.StartedAt.Equal(got.StartedAt))

	// The test process is alive, so the file is taken.
	assert.Error(t, p.claim())

	p.clear()
	_, err = p.pid()
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(p.statePath())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPIDFile_Garbage(t *testing.T) {
	p := pidFile(filepath.Join(t.TempDir(), "opsdashd.pid"))
	require.NoError(t, os.WriteFile(string(p), []byte("not-a-pid\n"), 0o600))

	_, err := p.pid()
	assert.Error(t, err)
	assert.Error(t, p.claim())
}
