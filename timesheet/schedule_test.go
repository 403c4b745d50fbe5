package timesheet_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

func TestDefaultSchedule_Windows(t *testing.T) {
	sched := timesheet.DefaultSchedule()

	w, ok := sched.NormalWindow(time.Tuesday)
	require.True(t, ok)
	assert.Equal(t, "07:30-17:30", w.String())

	w, ok = sched.NormalWindow(time.Friday)
	require.True(t, ok)
	assert.Equal(t, "07:30-16:30", w.String())

	w, ok = sched.NormalWindow(time.Saturday)
	require.True(t, ok)
	assert.Equal(t, "07:30-12:00", w.String())

	_, ok = sched.NormalWindow(time.Sunday)
	assert.False(t, ok, "sunday has no normal window")

	assertHours(t, "44", sched.WeeklyLimit())
	assertHours(t, "9", sched.DailyMax(time.Monday))
}

func TestScheduleFromSettings_EmptyMapFallsBackToDefaults(t *testing.T) {
	sched, err := timesheet.ScheduleFromSettings(nil, nil)
	require.NoError(t, err)

	def := timesheet.DefaultSchedule()
	assert.Equal(t, def.Weekday, sched.Weekday)
	assert.Equal(t, def.Friday, sched.Friday)
	assert.Equal(t, def.Saturday, sched.Saturday)
	assert.True(t, sched.IsFallback(timesheet.KeyWeeklyLimit))
	assert.True(t, sched.IsFallback(timesheet.KeyNormalStart))
	assert.True(t, sched.IsFallback(timesheet.MaxHoursKey(time.Sunday)))
}

func TestScheduleFromSettings_ConfiguredValues(t *testing.T) {
	settings := map[string]string{
		timesheet.KeyNormalStart:     "08:00",
		timesheet.KeyNormalEnd:       "18:00:00",
		timesheet.KeyNormalEndFriday: "15:00",
		timesheet.KeySaturdayStart:   "09:00",
		timesheet.KeySaturdayEnd:     "13:00",
		timesheet.KeyWeeklyLimit:     "40",
		timesheet.KeyDailyLimit:      "8.5",
		"max_hours_sunday":           "0",
	}

	sched, err := timesheet.ScheduleFromSettings(settings, nil)
	require.NoError(t, err)

	assert.Equal(t, "08:00-18:00", sched.Weekday.String())
	assert.Equal(t, "08:00-15:00", sched.Friday.String())
	assert.Equal(t, "09:00-13:00", sched.Saturday.String())
	assertHours(t, "40", sched.WeeklyLimit())
	assertHours(t, "8.5", sched.DailyMax(time.Wednesday))
	assert.True(t, sched.DailyMax(time.Sunday).IsZero())
	assert.False(t, sched.IsFallback(timesheet.KeyWeeklyLimit))
	assert.False(t, sched.IsFallback("max_hours_sunday"))
}

func TestScheduleFromSettings_LogsFallbackSource(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := timesheet.ScheduleFromSettings(map[string]string{timesheet.KeyWeeklyLimit: "40"}, logger)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "key=weekly_limit source=settings")
	assert.Contains(t, out, "key=normal_hours_start source=default")
}

func TestScheduleFromSettings_MalformedValueIsAnError(t *testing.T) {
	_, err := timesheet.ScheduleFromSettings(map[string]string{timesheet.KeyNormalEnd: "half past five"}, nil)
	assert.ErrorIs(t, err, timesheet.ErrMalformedSetting)

	_, err = timesheet.ScheduleFromSettings(map[string]string{timesheet.KeyWeeklyLimit: "-1"}, nil)
	assert.ErrorIs(t, err, timesheet.ErrMalformedSetting)
}

func TestSchedule_SettingsRoundTrip(t *testing.T) {
	sched := timesheet.DefaultSchedule()
	sched.Daily[time.Sunday] = hours("0")

	back, err := timesheet.ScheduleFromSettings(sched.Settings(), nil)
	require.NoError(t, err)
	assert.Equal(t, sched.Weekday, back.Weekday)
	assert.True(t, back.DailyMax(time.Sunday).IsZero())
	assert.Equal(t, []string{timesheet.KeyDailyLimit}, back.Fallbacks)
}

func TestParseClock(t *testing.T) {
	c, err := timesheet.ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Hour())
	assert.Equal(t, 5, c.Minute())

	for _, bad := range []string{"", "7", "24:00", "07:60", "ab:cd", "07:5"} {
		_, err := timesheet.ParseClock(bad)
		assert.ErrorIs(t, err, timesheet.ErrMalformedClock, bad)
	}
}

func TestWeekPeriod_MondayToSunday(t *testing.T) {
	p := timesheet.WeekPeriod(sunday)
	assert.Equal(t, monday, p.Start)
	assert.Equal(t, sunday, p.End)

	p = timesheet.WeekPeriod(monday)
	assert.Equal(t, monday, p.Start)
	assert.Len(t, p.Days(), 7)
	assert.Equal(t, "2026-W11", timesheet.ISOWeekLabel(sunday))
}
