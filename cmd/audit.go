package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/theirongolddev/opsdash/internal/audit"
	"github.com/theirongolddev/opsdash/internal/cli"
	"github.com/theirongolddev/opsdash/internal/model"
	"github.com/theirongolddev/opsdash/internal/pipeline"
	"github.com/theirongolddev/opsdash/internal/source"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// auditFile is the export file that accepted suggestions are appended to.
const auditFile = "audit-tasks.jsonl"

var (
	flagAuditFocus  string
	flagAuditYes    bool
	flagAuditDryRun bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Ask the audit service for next actions and add them as tasks",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&flagAuditFocus, "focus", "", "What the audit should concentrate on (prompted when empty)")
	auditCmd.Flags().BoolVarP(&flagAuditYes, "yes", "y", false, "Add suggestions without asking")
	auditCmd.Flags().BoolVar(&flagAuditDryRun, "dry-run", false, "Show suggestions without saving them")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(_ *cobra.Command, _ []string) error {
	client := audit.NewClient(cfg.Advisor.BaseURL, cfg.Advisor.APIKey, cfg.Advisor.Model)
	if client == nil {
		return errors.New("audit service not configured: set [advisor] base_url and api_key, or run `opsdash setup`")
	}

	now, err := referenceNow()
	if err != nil {
		return err
	}

	src, closeFn, err := openSource()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := context.Background()
	snap, err := pipeline.Fetch(ctx, src, pipeline.NeedProjects|pipeline.NeedTasks)
	if err != nil {
		return err
	}
	projects, tasks := audit.OpenWork(snap.Projects, snap.Tasks)

	focus := flagAuditFocus
	if focus == "" {
		err := huh.NewInput().
			Title("What should the audit focus on?").
			Placeholder("e.g. cash flow, overdue work, next quarter").
			Value(&focus).
			Run()
		if err != nil {
			return fmt.Errorf("reading focus: %w", err)
		}
	}

	if !flagQuiet {
		fmt.Printf("\n  Auditing %d open projects and %d open tasks...\n", len(projects), len(tasks))
	}

	wiz := audit.NewWizard()
	runCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()
	res, err := wiz.Run(runCtx, client, audit.Request{Focus: focus, Projects: projects, Tasks: tasks})
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrUnauthorized):
			return fmt.Errorf("audit service rejected the API key: %w", err)
		case errors.Is(err, audit.ErrRateLimited):
			return fmt.Errorf("audit service is rate limiting, try again later: %w", err)
		}
		return fmt.Errorf("running audit: %w", err)
	}

	newTasks := res.Tasks(now)
	printAudit(res.Summary, newTasks)

	if flagAuditDryRun || len(newTasks) == 0 {
		return nil
	}

	confirm := flagAuditYes
	if !confirm {
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Add %d tasks to your exports?", len(newTasks))).
			Value(&confirm).
			Run()
		if err != nil {
			return fmt.Errorf("confirming: %w", err)
		}
	}
	if !confirm {
		return nil
	}

	path := filepath.Join(flagDataDir, auditFile)
	if err := source.AppendTasks(path, newTasks); err != nil {
		return fmt.Errorf("saving audit tasks: %w", err)
	}
	log.Info().Int("tasks", len(newTasks)).Str("path", path).Msg("audit tasks saved")
	fmt.Printf("  Added %d tasks to %s\n\n", len(newTasks), path)
	return nil
}

func printAudit(summary string, tasks []model.Task) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("AUDIT"))
	if summary != "" {
		fmt.Println()
		fmt.Printf("  %s\n", summary)
	}
	fmt.Println()

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{t.Title, t.Priority, t.DueDate})
	}
	if len(rows) == 0 {
		fmt.Println(cli.Muted("  No suggestions."))
		return
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Suggested tasks",
		Headers: []string{"Task", "Priority", "Due"},
		Rows:    rows,
	}))
}
