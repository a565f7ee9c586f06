package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/daemon"
	"github.com/theirongolddev/opsdash/internal/logger"
	"github.com/theirongolddev/opsdash/internal/pipeline"

	"github.com/spf13/cobra"
)

// daemonOpts holds the daemon flags; empty values fall back to [daemon] config.
var daemonOpts struct {
	addr       string
	interval   time.Duration
	background bool
	pidPath    string
	logPath    string
	keep       int
	spawned    bool
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve dashboard reports over HTTP and stream workspace changes",
	Long: `Re-reads the exported workspace on an interval and serves
/v1/reports/{view}, /v1/status, /v1/events and the /v1/stream SSE feed.`,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is up and what it last saw",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Send SIGTERM to the daemon and wait for it to exit",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&daemonOpts.addr, "addr", "", "host:port for the report API (default [daemon] addr)")
	pf.DurationVar(&daemonOpts.interval, "interval", 0, "how often to re-read the workspace (default [daemon] interval)")
	pf.StringVar(&daemonOpts.pidPath, "pid-file", filepath.Join(pipeline.CacheDir(), "opsdashd.pid"), "where the daemon records its pid")
	pf.StringVar(&daemonOpts.logPath, "log-file", filepath.Join(pipeline.CacheDir(), "opsdashd.log"), "output file when running with --detach")
	pf.IntVar(&daemonOpts.keep, "events-buffer", 200, "number of recent change events kept for /v1/events")

	daemonCmd.Flags().BoolVar(&daemonOpts.background, "detach", false, "fork into the background and return")
	daemonCmd.Flags().BoolVar(&daemonOpts.spawned, "child", false, "set on the forked process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	fillDaemonOpts()

	switch {
	case daemonOpts.background && daemonOpts.spawned:
		return errors.New("--detach and --child are mutually exclusive")
	case daemonOpts.background:
		return spawnDaemon()
	default:
		return serveDaemon()
	}
}

// spawnDaemon re-executes the current command line without --detach and
// sends the child's output to the log file.
func spawnDaemon() error {
	pids := pidFile(daemonOpts.pidPath)
	if err := pids.claim(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(daemonOpts.logPath), 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate opsdash binary: %w", err)
	}

	//nolint:gosec // path comes from the user's own flags
	out, err := os.OpenFile(daemonOpts.logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", daemonOpts.logPath, err)
	}
	defer func() { _ = out.Close() }()

	child := exec.Command(exe, childArgs(os.Args[1:])...) //nolint:gosec // re-runs our own argv
	child.Stdout, child.Stderr = out, out
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("fork daemon: %w", err)
	}

	fmt.Printf("  opsdash daemon forked as pid %d\n", child.Process.Pid)
	fmt.Printf("  Reports: http://%s/v1/reports/overview\n", daemonOpts.addr)
	fmt.Printf("  Output:  %s\n", daemonOpts.logPath)
	return nil
}

func serveDaemon() error {
	pids := pidFile(daemonOpts.pidPath)
	if err := pids.claim(); err != nil {
		return err
	}
	if err := pids.write(daemonState{
		PID:       os.Getpid(),
		Addr:      daemonOpts.addr,
		StartedAt: time.Now(),
		DataDir:   flagDataDir,
	}); err != nil {
		return err
	}
	defer pids.clear()

	// Polls are unattended; progress lines would only fill the log.
	flagQuiet = true

	svc := daemon.New(daemon.Config{
		DataDir:        flagDataDir,
		HourlyRate:     cfg.Analytics.HourlyRate,
		WindowMonths:   cfg.Analytics.WindowMonths,
		Interval:       daemonOpts.interval,
		Addr:           daemonOpts.addr,
		EventsBuffer:   daemonOpts.keep,
		AllowedOrigins: cfg.Daemon.AllowedOrigins,
		Open: func(context.Context) (pipeline.Source, func(), error) {
			return openSource()
		},
		Logger: logger.WithComponent("daemon"),
	})

	fmt.Printf("  opsdash daemon on http://%s, re-reading %s every %s\n",
		daemonOpts.addr, flagDataDir, daemonOpts.interval)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	fillDaemonOpts()

	pids := pidFile(daemonOpts.pidPath)
	pid, err := pids.pid()
	switch {
	case err != nil:
		fmt.Println("  Daemon: not running")
		return nil
	case !alive(pid):
		fmt.Printf("  Daemon: not running (leftover pid file for %d)\n", pid)
		return nil
	}

	addr := daemonOpts.addr
	if st, err := pids.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}
	fmt.Printf("  Daemon: pid %d on http://%s\n", pid, addr)

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Printf("  API: %v\n", err)
		return nil
	}

	lastPoll := "not yet"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	fmt.Printf("  Last poll: %s (%d so far)\n", lastPoll, st.PollCount)
	fmt.Printf("  Revenue this month: %s\n", cli.FormatMoney(st.Summary.RevenueThisMonth))
	fmt.Printf("  Profit this month:  %s\n", cli.FormatSigned(st.Summary.ProfitThisMonth))
	fmt.Printf("  Outstanding:        %s\n", cli.FormatMoney(st.Summary.Outstanding))
	fmt.Printf("  Hours this week:    %s\n", cli.FormatHours(st.Summary.WeekHours))
	fmt.Printf("  Deadlines:          %d overdue, %d due soon\n", st.Summary.Overdue, st.Summary.DueSoon)
	if st.LastError != "" {
		fmt.Printf("  Last poll error: %s\n", st.LastError)
	}
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("bad status payload: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pids := pidFile(daemonOpts.pidPath)
	pid, err := pids.pid()
	if err != nil {
		return errors.New("no daemon to stop")
	}

	proc, err := os.FindProcess(pid)
	if err == nil {
		err = proc.Signal(syscall.SIGTERM)
	}
	if err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	if !waitExit(pid, 8*time.Second) {
		return fmt.Errorf("pid %d still running after SIGTERM", pid)
	}

	pids.clear()
	fmt.Printf("  Daemon (pid %d) stopped\n", pid)
	return nil
}

// waitExit polls until pid is gone or the timeout passes.
func waitExit(pid int, timeout time.Duration) bool {
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(timeout)
	for alive(pid) {
		select {
		case <-tick.C:
		case <-deadline:
			return false
		}
	}
	return true
}

// fillDaemonOpts applies the [daemon] config section to unset flags.
func fillDaemonOpts() {
	if daemonOpts.addr == "" {
		daemonOpts.addr = cfg.Daemon.Addr
	}
	if daemonOpts.interval == 0 {
		daemonOpts.interval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}
}

// childArgs turns the parent's argv into the forked process's argv.
func childArgs(args []string) []string {
	out := slices.DeleteFunc(slices.Clone(args), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
	return append(out, "--child")
}

func alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// daemonState is written next to the pid file so status can find the API.
type daemonState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

// pidFile is the path of the daemon's pid file. Its state lives at path+".json".
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

// claim fails when a live daemon owns the pid file and clears a stale one.
func (p pidFile) claim() error {
	pid, err := p.pid()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return os.MkdirAll(filepath.Dir(string(p)), 0o750)
	case err != nil:
		return err
	case alive(pid):
		return fmt.Errorf("opsdash daemon already running as pid %d", pid)
	}
	p.clear()
	return nil
}

func (p pidFile) write(st daemonState) error {
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	// Status falls back to --addr without it.
	_ = os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
	return nil
}

func (p pidFile) pid() (int, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // path comes from the user's own flags
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%s does not hold a pid", p)
	}
	return pid, nil
}

func (p pidFile) state() (daemonState, error) {
	var st daemonState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // path comes from the user's own flags
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (p pidFile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}
