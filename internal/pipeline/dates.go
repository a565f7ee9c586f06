package pipeline

import (
	"strings"
	"time"
)

// Layouts accepted for upstream date fields, tried in order.
// Zone-less layouts are interpreted in local time.
var dateLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

// ParseDate parses an upstream date or timestamp string into local time.
// It reports false for empty or unparsable input.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, raw); err == nil {
				return t.Local(), true
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayStart returns local midnight of the day containing t.
func dayStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// monthStart returns local midnight of the first day of t's month.
func monthStart(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
}

// weekStart returns local midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// daysBetween counts calendar days from a to b in local time; negative when b is earlier.
// Computed on UTC-normalized dates so DST transitions do not shorten a day.
func daysBetween(a, b time.Time) int {
	a, b = a.Local(), b.Local()
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
