package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// DeadlineTriage merges open tasks and projects that have a due date into one
// list sorted by due date, each classified by calendar days from today.
func DeadlineTriage(tasks []model.Task, projects []model.Project, now time.Time) ([]model.Deadline, []model.SkippedRecord) {
	today := dayStart(now)
	out := make([]model.Deadline, 0)
	var skipped []model.SkippedRecord

	add := func(kind model.DeadlineKind, id, title, projectID, raw string) {
		if strings.TrimSpace(raw) == "" {
			return
		}
		due, ok := ParseDate(raw)
		if !ok {
			skipped = append(skipped, model.SkippedRecord{
				Entity: string(kind), ID: id, Field: "due_date", Value: raw,
			})
			return
		}
		days := daysBetween(today, due)
		d := model.Deadline{
			Kind:      kind,
			ID:        id,
			Title:     title,
			ProjectID: projectID,
			DueDate:   due,
			DaysUntil: days,
			Urgency:   classifyDays(days),
		}
		if days < 0 {
			d.DaysOverdue = -days
		}
		out = append(out, d)
	}

	for _, t := range tasks {
		if taskOpen(t) {
			add(model.DeadlineTask, t.ID, t.Title, t.ProjectID, t.DueDate)
		}
	}
	for _, p := range projects {
		if projectOpen(p) {
			add(model.DeadlineProject, p.ID, p.Name, p.ID, p.DueDate)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out, skipped
}

func classifyDays(days int) model.Urgency {
	switch {
	case days < 0:
		return model.UrgencyOverdue
	case days == 0:
		return model.UrgencyToday
	case days <= SoonDays:
		return model.UrgencySoon
	default:
		return model.UrgencyUpcoming
	}
}
