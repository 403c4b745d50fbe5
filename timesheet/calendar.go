package timesheet

import (
	"fmt"
	"time"
)

// =============================================================================
// DATES - Calendar days without a time component
// =============================================================================

// NewDate returns the given calendar day at UTC midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf strips the time component, keeping the calendar day as seen in t's
// own location.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool { return DateOf(a).Equal(DateOf(b)) }

// ParseDate parses a "2006-01-02" work date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// =============================================================================
// PERIOD - Inclusive range of days
// =============================================================================

// Period is the inclusive day range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the day of t lies inside the period.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days lists every day in the period.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.DateOnly) + ", " + p.End.Format(time.DateOnly) + "]"
}

// DayPeriod is the single-day period containing t.
func DayPeriod(t time.Time) Period {
	d := DateOf(t)
	return Period{Start: d, End: d}
}

// WeekPeriod returns the Monday to Sunday week containing t.
func WeekPeriod(t time.Time) Period {
	d := DateOf(t)
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7 // Sunday closes the ISO week
	}
	monday := d.AddDate(0, 0, -(wd - 1))
	return Period{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// MonthPeriod returns the calendar month containing t.
func MonthPeriod(t time.Time) Period {
	first := NewDate(t.Year(), t.Month(), 1)
	return Period{Start: first, End: first.AddDate(0, 1, -1)}
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
