// Package period maps a reference instant and a period kind to the half-open
// date window [Start, End) a budget is evaluated over.
package period

import (
	"time"

	"dompet/internal/core"
)

// FarFuture is the sentinel end for open-ended custom windows. A budget with
// no end date is unbounded forward, never "no spend counted".
var FarFuture = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// Window is a half-open range: a transaction dated exactly at Start is
// inside, one dated exactly at End is not.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	return !d.Before(w.Start) && d.Before(w.End)
}

// Resolve computes the window for a budget at the given instant. Recurring
// periods derive from now; custom budgets use their explicit range.
func Resolve(now time.Time, b core.Budget) Window {
	switch b.Period {
	case core.Daily, core.Weekly, core.Monthly:
		return Recurring(now, b.Period)
	default:
		end := FarFuture
		if b.EndDate != nil {
			end = b.EndDate.Time
		}
		return Window{Start: b.StartDate.Time, End: end}
	}
}

// Recurring computes the daily, weekly or monthly window containing now.
// Weeks start on Sunday. Month arithmetic is calendar-correct: the monthly
// window of January 31st ends on February 1st, not 30 days later.
func Recurring(now time.Time, p core.Period) Window {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case core.Daily:
		return Window{Start: midnight, End: midnight.AddDate(0, 0, 1)}
	case core.Weekly:
		start := midnight.AddDate(0, 0, -int(now.Weekday()))
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case core.Monthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	default:
		// Custom has no recurrence; callers go through Resolve.
		return Window{Start: midnight, End: midnight.AddDate(0, 0, 1)}
	}
}
