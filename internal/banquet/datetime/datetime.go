// Package datetime models the timezone-naive date/time pairs a booking is
// edited with and the range rules that tie them together.
package datetime

import (
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage layout for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire and storage layout for wall-clock times.
	ClockLayout = "15:04"
)

// Moment is a local date plus a wall-clock time. Either half may be empty
// while the user is still editing.
type Moment struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// HasDate reports whether the date half parses.
func (m Moment) HasDate() bool {
	_, ok := ParseDate(m.Date)
	return ok
}

// HasTime reports whether the clock half parses.
func (m Moment) HasTime() bool {
	_, ok := ParseClock(m.Time)
	return ok
}

// Complete reports whether both halves parse.
func (m Moment) Complete() bool {
	return m.HasDate() && m.HasTime()
}

// Instant combines both halves in UTC. A missing clock counts as midnight.
func (m Moment) Instant() (time.Time, bool) {
	d, ok := ParseDate(m.Date)
	if !ok {
		return time.Time{}, false
	}
	c, ok := ParseClock(m.Time)
	if !ok {
		return d, true
	}
	return d.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute), true
}

// ParseDate parses a calendar date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseClock parses a wall-clock time; seconds are accepted and dropped.
func ParseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders two dates. Unparseable values compare equal so that an
// incomplete edit never triggers a correction.
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	if !okA || !okB {
		return 0
	}
	return ta.Compare(tb)
}

// CompareClocks orders two wall-clock times with the same leniency.
func CompareClocks(a, b string) int {
	ta, okA := ParseClock(a)
	tb, okB := ParseClock(b)
	if !okA || !okB {
		return 0
	}
	return ta.Compare(tb)
}

// Compare orders two moments by date, then by time.
func Compare(a, b Moment) int {
	if c := CompareDates(a.Date, b.Date); c != 0 {
		return c
	}
	return CompareClocks(a.Time, b.Time)
}

// RangeValid reports whether to is not before from. Incomplete moments are
// treated as valid; presence is checked separately.
func RangeValid(from, to Moment) bool {
	if !from.Complete() || !to.Complete() {
		return true
	}
	return Compare(to, from) >= 0
}

// ReconcileRange applies the one-directional corrections that follow an edit
// of from: a to-date earlier than the from-date is pulled up to it, and on a
// shared day a to-time earlier than the from-time is pulled up as well. The
// from moment is never altered.
func ReconcileRange(from, to Moment) (Moment, Moment) {
	if CompareDates(to.Date, from.Date) < 0 {
		to.Date = from.Date
	}
	sameDay := from.HasDate() && to.HasDate() && CompareDates(to.Date, from.Date) == 0
	if sameDay && CompareClocks(to.Time, from.Time) < 0 {
		to.Time = from.Time
	}
	return from, to
}

// Today returns the local calendar date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Clock returns the local wall-clock time.
func Clock(now time.Time) string {
	return now.Format(ClockLayout)
}
