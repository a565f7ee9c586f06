package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/opsdash/internal/model"
)

// Granularity is the calendar unit of a bucket.
type Granularity int

// Bucket granularities.
const (
	Day Granularity = iota
	Week
	Month
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Direction selects whether buckets trail or lead the reference instant.
type Direction int

// Bucket directions.
const (
	// Backward is a trailing window ending with the bucket that contains the reference.
	Backward Direction = iota
	// Forward is a horizon starting with the bucket that contains the reference.
	Forward
)

// Bucket is a half-open calendar interval [Start, End).
type Bucket struct {
	Start time.Time
	End   time.Time
	Key   string
	Label string
}

// Contains reports whether t falls within [Start, End).
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Buckets returns n chronologically ordered buckets of granularity g around ref.
// It panics if n is not positive.
func Buckets(ref time.Time, n int, g Granularity, dir Direction) []Bucket {
	if n <= 0 {
		panic(fmt.Sprintf("pipeline: bucket count must be positive, got %d", n))
	}

	anchor := truncate(ref, g)
	first := anchor
	if dir == Backward {
		first = step(anchor, g, -(n - 1))
	}

	buckets := make([]Bucket, n)
	for i := range buckets {
		start := step(first, g, i)
		buckets[i] = Bucket{
			Start: start,
			End:   step(start, g, 1),
			Key:   bucketKey(start, g),
			Label: bucketLabel(start, g),
		}
	}
	return buckets
}

// BucketFor returns the single bucket of granularity g containing t.
func BucketFor(t time.Time, g Granularity) Bucket {
	return Buckets(t, 1, g, Forward)[0]
}

// Dated describes how to read the bucketing date of a record.
type Dated[T any] struct {
	Entity string
	Field  string
	ID     func(T) string
	Date   func(T) string

	// FieldOf, when set, names the field Date read for a given record.
	FieldOf func(T) string
}

func (d Dated[T]) field(r T) string {
	if d.FieldOf != nil {
		return d.FieldOf(r)
	}
	return d.Field
}

// Assign places each record into the bucket containing its date.
// The result has one slice per bucket, in bucket order. Records outside every
// bucket or without a date are dropped; records with an unparsable date are
// reported as skipped.
func Assign[T any](buckets []Bucket, records []T, d Dated[T]) ([][]T, []model.SkippedRecord) {
	out := make([][]T, len(buckets))
	var skipped []model.SkippedRecord
	if len(buckets) == 0 {
		return out, skipped
	}

	lo, hi := buckets[0].Start, buckets[len(buckets)-1].End
	for _, r := range records {
		raw := d.Date(r)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, ok := ParseDate(raw)
		if !ok {
			skipped = append(skipped, model.SkippedRecord{
				Entity: d.Entity,
				ID:     d.ID(r),
				Field:  d.field(r),
				Value:  raw,
			})
			continue
		}
		if t.Before(lo) || !t.Before(hi) {
			continue
		}
		for i := range buckets {
			if buckets[i].Contains(t) {
				out[i] = append(out[i], r)
				break
			}
		}
	}
	return out, skipped
}

func truncate(t time.Time, g Granularity) time.Time {
	switch g {
	case Week:
		return weekStart(t)
	case Month:
		return monthStart(t)
	default:
		return dayStart(t)
	}
}

func step(t time.Time, g Granularity, n int) time.Time {
	switch g {
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

func bucketKey(start time.Time, g Granularity) string {
	if g == Month {
		return start.Format("2006-01")
	}
	return start.Format("2006-01-02")
}

func bucketLabel(start time.Time, g Granularity) string {
	switch g {
	case Week:
		return "Week of " + start.Format("Jan 2")
	case Month:
		return start.Format("Jan 2006")
	default:
		return start.Format("Mon Jan 2")
	}
}
