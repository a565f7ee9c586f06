package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// ProductivityHeatmap sums tracked minutes by local weekday (Sunday first)
// and hour of the entry's start time. Entries with a missing or unparsable
// start time are reported and contribute nothing.
func ProductivityHeatmap(entries []model.TimeEntry) (model.Heatmap, []model.SkippedRecord) {
	var h model.Heatmap
	var skipped []model.SkippedRecord

	for _, e := range entries {
		var t time.Time
		ok := strings.TrimSpace(e.StartTime) != ""
		if ok {
			t, ok = ParseDate(e.StartTime)
		}
		if !ok {
			skipped = append(skipped, model.SkippedRecord{
				Entity: entryByStart.Entity,
				ID:     e.ID,
				Field:  entryByStart.Field,
				Value:  e.StartTime,
			})
			continue
		}
		h[int(t.Weekday())][t.Hour()] += minutesOf(e)
	}
	return h, skipped
}

// Intensity maps a cell's minutes onto 0..1, saturating at one hour.
func Intensity(minutes float64) float64 {
	v := minutes / 60
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// Tier returns the display tier of a cell.
func Tier(minutes float64) model.HeatTier {
	i := Intensity(minutes)
	switch {
	case i > 0.75:
		return model.HeatPeak
	case i > 0.5:
		return model.HeatHigh
	case i > 0.25:
		return model.HeatMedium
	case i > 0:
		return model.HeatLow
	default:
		return model.HeatEmpty
	}
}

// PeakCell returns the weekday and hour with the most minutes. ok is false
// when the heatmap is empty.
func PeakCell(h model.Heatmap) (weekday, hour int, ok bool) {
	best := 0.0
	for d := range h {
		for hr := range h[d] {
			if h[d][hr] > best {
				best, weekday, hour, ok = h[d][hr], d, hr, true
			}
		}
	}
	return weekday, hour, ok
}
