// Package audit runs the strategic-audit workflow: open projects and tasks
// go to a text-generation service and its suggestions come back as new tasks.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"

	"github.com/google/uuid"
)

// Request is the input of one audit run.
type Request struct {
	Focus    string          `json:"focus"`
	Projects []model.Project `json:"projects"`
	Tasks    []model.Task    `json:"tasks"`
}

// Suggestion is one recommended action.
type Suggestion struct {
	Title     string `json:"title"`
	ProjectID string `json:"project_id,omitempty"`
	Priority  string `json:"priority,omitempty"`
	DueInDays int    `json:"due_in_days"`
}

// Result is the generator's answer.
type Result struct {
	Summary     string       `json:"summary"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Generator produces audit results. Client is the HTTP implementation.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Tasks converts suggestions into new todo tasks due relative to now.
// Suggestions without a title are dropped.
func (r *Result) Tasks(now time.Time) []model.Task {
	if r == nil {
		return nil
	}
	tasks := make([]model.Task, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		days := max(s.DueInDays, 0)
		tasks = append(tasks, model.Task{
			ID:        uuid.NewString(),
			ProjectID: s.ProjectID,
			Title:     title,
			DueDate:   now.AddDate(0, 0, days).Format("2006-01-02"),
			Status:    "todo",
			Priority:  normalizePriority(s.Priority),
		})
	}
	return tasks
}

func normalizePriority(p string) string {
	switch p = strings.ToLower(strings.TrimSpace(p)); p {
	case "low", "medium", "high", "urgent":
		return p
	default:
		return "medium"
	}
}

// OpenWork trims a snapshot down to the records worth auditing:
// projects and tasks that are not closed.
func OpenWork(projects []model.Project, tasks []model.Task) ([]model.Project, []model.Task) {
	var ps []model.Project
	for _, p := range projects {
		switch strings.ToLower(p.Status) {
		case "completed", "cancelled", "archived":
			continue
		}
		ps = append(ps, p)
	}
	var ts []model.Task
	for _, t := range tasks {
		switch strings.ToLower(t.Status) {
		case "completed", "done", "cancelled":
			continue
		}
		ts = append(ts, t)
	}
	return ps, ts
}
