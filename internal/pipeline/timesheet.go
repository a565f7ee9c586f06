package pipeline

import (
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// TimeTrackingSummary totals the Monday-to-Sunday week containing now.
// Completion is measured against WeeklyTargetHours and is not clamped.
func TimeTrackingSummary(entries []model.TimeEntry, now time.Time) (model.WeekSummary, []model.SkippedRecord) {
	days := Buckets(weekStart(now), 7, Day, Forward)
	grouped, skipped := Assign(days, entries, entryByDate)

	summary := model.WeekSummary{
		WeekStart:   days[0].Start,
		TargetHours: WeeklyTargetHours,
	}

	var totalMin, billableMin float64
	for i := range days {
		var dayMin float64
		for _, e := range grouped[i] {
			m := minutesOf(e)
			dayMin += m
			if e.IsBillable {
				billableMin += m
			}
			summary.EntryCount++
		}
		summary.Daily[i] = dayMin / 60
		totalMin += dayMin
	}

	summary.TotalHours = totalMin / 60
	summary.BillableHours = billableMin / 60
	summary.BillableRatio = ratio(billableMin, totalMin)
	summary.CompletionRate = summary.TotalHours / WeeklyTargetHours * 100
	return summary, skipped
}
