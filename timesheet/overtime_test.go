package timesheet_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	monday   = timesheet.NewDate(2026, time.March, 9)
	tuesday  = timesheet.NewDate(2026, time.March, 10)
	friday   = timesheet.NewDate(2026, time.March, 13)
	saturday = timesheet.NewDate(2026, time.March, 14)
	sunday   = timesheet.NewDate(2026, time.March, 15)
)

func clock(s string) timesheet.Clock { return timesheet.MustParseClock(s) }

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertHours(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, hours(want).Equal(got), append([]any{"want %sh, got %sh", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// SPLIT SCENARIOS
// =============================================================================

func TestSplitOvertime_WeekdayBothEnds(t *testing.T) {
	// GIVEN: Tuesday window 07:30-17:30
	// WHEN: Working 07:00-18:00
	// THEN: 10h normal, 1h overtime (30m before + 30m after), 11h total
	split := timesheet.SplitOvertime(tuesday, clock("07:00"), clock("18:00"), timesheet.DefaultSchedule())

	assert.Equal(t, 600, split.NormalMinutes)
	assert.Equal(t, 60, split.OvertimeMinutes)
	assert.Equal(t, 660, split.TotalMinutes)
	assertHours(t, "10", split.NormalHours())
	assertHours(t, "1", split.OvertimeHours())
	assertHours(t, "11", split.TotalHours())
}

func TestSplitOvertime_Saturday(t *testing.T) {
	// Saturday window 07:30-12:00, worked 08:00-14:00
	split := timesheet.SplitOvertime(saturday, clock("08:00"), clock("14:00"), timesheet.DefaultSchedule())

	assertHours(t, "4", split.NormalHours())
	assertHours(t, "2", split.OvertimeHours())
	assertHours(t, "6", split.TotalHours())
}

func TestSplitOvertime_FridayEndsEarlier(t *testing.T) {
	split := timesheet.SplitOvertime(friday, clock("08:00"), clock("17:30"), timesheet.DefaultSchedule())

	assertHours(t, "8.5", split.NormalHours())
	assertHours(t, "1", split.OvertimeHours())
}

func TestSplitOvertime_SundayIsAllOvertime(t *testing.T) {
	schedules := []timesheet.ScheduleConfig{timesheet.DefaultSchedule()}

	wide := timesheet.DefaultSchedule()
	wide.Weekday = timesheet.Window{Start: clock("00:00"), End: clock("23:59")}
	wide.Saturday = wide.Weekday
	schedules = append(schedules, wide)

	for _, sched := range schedules {
		split := timesheet.SplitOvertime(sunday, clock("08:00"), clock("12:00"), sched)
		assert.Zero(t, split.NormalMinutes)
		assert.Equal(t, 240, split.OvertimeMinutes)
	}
}

func TestSplitOvertime_EntirelyOutsideWindow(t *testing.T) {
	split := timesheet.SplitOvertime(monday, clock("18:00"), clock("20:15"), timesheet.DefaultSchedule())

	assert.Zero(t, split.NormalMinutes)
	assert.Equal(t, 135, split.OvertimeMinutes)
	assertHours(t, "2.25", split.OvertimeHours())
}

func TestSplitOvertime_CrossingMidnightAddsADay(t *testing.T) {
	// 22:00 -> 02:00 is read as a 4h overnight shift
	split := timesheet.SplitOvertime(monday, clock("22:00"), clock("02:00"), timesheet.DefaultSchedule())

	assert.Equal(t, 240, split.TotalMinutes)
	assert.Zero(t, split.NormalMinutes)
	assert.Equal(t, 240, split.OvertimeMinutes)
}

func TestSplitOvertime_RoundsOnlyAtTheBoundary(t *testing.T) {
	// 07:10-17:30 -> 20m overtime, 600m normal
	split := timesheet.SplitOvertime(tuesday, clock("07:10"), clock("17:30"), timesheet.DefaultSchedule())

	assert.Equal(t, 20, split.OvertimeMinutes)
	assertHours(t, "0.33", split.OvertimeHours())
	assertHours(t, "10.33", split.TotalHours())
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestSplitOvertime_NeverLosesMinutes(t *testing.T) {
	sched := timesheet.DefaultSchedule()
	days := []time.Time{monday, tuesday, friday, saturday, sunday}

	for _, day := range days {
		for start := 0; start < 24*60; start += 37 {
			for end := 0; end < 24*60; end += 53 {
				split := timesheet.SplitOvertime(day, timesheet.Clock(start), timesheet.Clock(end), sched)
				require.GreaterOrEqual(t, split.NormalMinutes, 0)
				require.GreaterOrEqual(t, split.OvertimeMinutes, 0)
				require.Equal(t, split.TotalMinutes, split.NormalMinutes+split.OvertimeMinutes,
					"day=%s start=%d end=%d", day.Weekday(), start, end)
				if day.Weekday() == time.Sunday {
					require.Zero(t, split.NormalMinutes)
				}
			}
		}
	}
}

func TestHoursBetween(t *testing.T) {
	assertHours(t, "8.5", timesheet.HoursBetween(clock("08:00"), clock("16:30")))
	assertHours(t, "0.33", timesheet.HoursBetween(clock("08:00"), clock("08:20")))
}
