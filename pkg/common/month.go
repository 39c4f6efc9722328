package common

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month used to label and scope a report.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(raw string) (Month, error) {
	t, err := time.Parse(monthLayout, raw)
	if err != nil {
		return Month{}, &ConfigurationError{Msg: fmt.Sprintf("malformed month %q, expected YYYY-MM", raw), Err: err}
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// PreviousMonth returns the calendar month before the one containing now.
func PreviousMonth(now time.Time) Month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return Month{Year: prev.Year(), Month: prev.Month()}
}

// String renders the month the way it appears in report headers,
// e.g. "May 2024".
func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

// Key renders the month as "YYYY-MM".
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Window returns the half open UTC interval covering the whole month.
func (m Month) Window() Window {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// Window is the half open time range [Start, End) commits are read from.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
