package timesheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK - Time of day with minute precision
// =============================================================================

// Clock is a time of day expressed as minutes after midnight (0..1439).
type Clock int

const minutesPerDay = 24 * 60

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock parses "HH:MM" or "HH:MM:SS". Seconds are accepted and dropped.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
		}
	}
	return NewClock(h, m), nil
}

// MustParseClock is ParseClock for package-level constants and tests.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// On returns the instant of c on the given date.
func (c Clock) On(date time.Time) time.Time {
	d := DateOf(date)
	return d.Add(time.Duration(c) * time.Minute)
}

// ClockPtr is a convenience for optional Start/End fields.
func ClockPtr(c Clock) *Clock { return &c }

// =============================================================================
// WINDOW - [Start, End) interval within one day
// =============================================================================

type Window struct {
	Start Clock
	End   Clock
}

// Minutes returns the window length, zero for an empty or inverted window.
func (w Window) Minutes() int {
	if w.End <= w.Start {
		return 0
	}
	return int(w.End - w.Start)
}

func (w Window) String() string { return w.Start.String() + "-" + w.End.String() }
