// Package period maps instants onto canonical, granularity-aligned buckets.
//
// Every key is derived from the bucket start alone, so two instants that
// share a bucket always produce the same period key and sort key.
package period

import (
	"fmt"
	"time"

	"receipts/internal/core"
)

// Bucket identifies one granularity-aligned interval.
type Bucket struct {
	Granularity core.Granularity
	Start       time.Time
	Key         string // day/week: 2006-01-02, month: 2006-01, quarter: 2006-Q1, year: 2006
	SortKey     int64  // Start in unix milliseconds
	Label       string
}

// Start returns the canonical bucket start of t in t's location.
// Weeks are Monday-anchored.
func Start(g core.Granularity, t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case core.Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case core.Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case core.Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case core.Quarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case core.Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Previous returns the start of the bucket immediately before the one
// containing t.
func Previous(g core.Granularity, t time.Time) time.Time {
	s := Start(g, t)
	switch g {
	case core.Day:
		return s.AddDate(0, 0, -1)
	case core.Week:
		return s.AddDate(0, 0, -7)
	case core.Month:
		return s.AddDate(0, -1, 0)
	case core.Quarter:
		return s.AddDate(0, -3, 0)
	case core.Year:
		return s.AddDate(-1, 0, 0)
	default:
		return s.AddDate(0, 0, -1)
	}
}

// Of returns the bucket containing t.
func Of(g core.Granularity, t time.Time) Bucket {
	s := Start(g, t)
	key := Key(g, s)
	return Bucket{
		Granularity: g,
		Start:       s,
		Key:         key,
		SortKey:     s.UnixMilli(),
		Label:       label(g, s, key),
	}
}

// Key formats a bucket start as its period key.
func Key(g core.Granularity, start time.Time) string {
	switch g {
	case core.Month:
		return start.Format("2006-01")
	case core.Quarter:
		return fmt.Sprintf("%d-Q%d", start.Year(), QuarterOf(start))
	case core.Year:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

// QuarterOf returns 1..4.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func label(g core.Granularity, start time.Time, key string) string {
	switch g {
	case core.Day, core.Week:
		return start.Format("Jan 2")
	case core.Month:
		return start.Format("Jan 06")
	default:
		return key
	}
}
