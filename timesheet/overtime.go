package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME SPLIT
// =============================================================================

// Split is the normal/overtime breakdown of a worked interval in minutes.
// NormalMinutes + OvertimeMinutes == TotalMinutes always holds.
type Split struct {
	NormalMinutes   int
	OvertimeMinutes int
	TotalMinutes    int
}

var sixty = decimal.NewFromInt(60)

func minutesToHours(m int) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).DivRound(sixty, 2)
}

func (s Split) NormalHours() decimal.Decimal   { return minutesToHours(s.NormalMinutes) }
func (s Split) OvertimeHours() decimal.Decimal { return minutesToHours(s.OvertimeMinutes) }
func (s Split) TotalHours() decimal.Decimal    { return minutesToHours(s.TotalMinutes) }

// HasOvertime reports whether any minute falls outside the normal window.
func (s Split) HasOvertime() bool { return s.OvertimeMinutes > 0 }

// SplitOvertime splits [start, end) worked on date into normal and overtime
// minutes according to the schedule's window for that weekday.
//
// An end before start is read as crossing midnight and 24h is added. Daily
// ceilings make overnight shifts unlikely in practice; this keeps the
// arithmetic total either way.
func SplitOvertime(date time.Time, start, end Clock, schedule ScheduleConfig) Split {
	s, e := int(start), int(end)
	if e < s {
		e += minutesPerDay
	}
	total := e - s

	win, ok := schedule.NormalWindow(date.Weekday())
	if !ok {
		return Split{OvertimeMinutes: total, TotalMinutes: total}
	}

	normal := max(0, min(e, int(win.End))-max(s, int(win.Start)))
	return Split{
		NormalMinutes:   normal,
		OvertimeMinutes: max(0, total-normal),
		TotalMinutes:    total,
	}
}

// HoursBetween derives the hour count of a time range, rounded to 2dp.
func HoursBetween(start, end Clock) decimal.Decimal {
	m := int(end) - int(start)
	if m < 0 {
		m += minutesPerDay
	}
	return minutesToHours(m)
}
