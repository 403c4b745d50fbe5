package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

func withStatus(e timesheet.TimeEntry, s timesheet.Status) timesheet.TimeEntry {
	e.Status = s
	return e
}

func weekFixture() []timesheet.TimeEntry {
	globex := pendingRange("g1", friday, "08:00", "10:00")
	globex.ClientKey = "globex"
	globex.AreaName = "plant"

	return []timesheet.TimeEntry{
		// 8h normal
		withStatus(pendingRange("e1", monday, "08:00", "16:00"), timesheet.StatusApproved),
		// 10h normal + 1h overtime
		withStatus(pendingRange("e2", tuesday, "07:00", "18:00"), timesheet.StatusApprovedNormalOnly),
		// 4h normal + 2h overtime
		withStatus(pendingRange("e3", saturday, "08:00", "14:00"), timesheet.StatusRejected),
		// 3h overtime
		pendingRange("e4", sunday, "09:00", "12:00"),
		// legacy, counts as normal
		withStatus(hourEntry("e5", friday, "1.5", ""), timesheet.StatusPending),
		// 2h normal
		globex,
	}
}

func TestTotalsOf_PartitionsByStatus(t *testing.T) {
	totals := timesheet.TotalsOf(weekFixture(), timesheet.DefaultSchedule())

	assert.Equal(t, 6, totals.Entries)
	assertHours(t, "31.5", totals.Total)
	assertHours(t, "25.5", totals.Normal)
	assertHours(t, "6", totals.Overtime)

	// e1 8h + e2 normal 10h
	assertHours(t, "18", totals.Approved)
	// e3 6h + e2 overtime 1h
	assertHours(t, "7", totals.Rejected)
	// e4 3h + e5 1.5h + g1 2h
	assertHours(t, "6.5", totals.Pending)

	sum := totals.Approved.Add(totals.Rejected).Add(totals.Pending)
	assert.True(t, sum.Equal(totals.Total), "approved+rejected+pending must equal total")
	assert.True(t, totals.Normal.Add(totals.Overtime).Equal(totals.Total))
}

func TestTotalsOf_TotalIsSumOfHours(t *testing.T) {
	entries := weekFixture()
	sum := hours("0")
	for _, e := range entries {
		sum = sum.Add(e.Hours)
	}
	assert.True(t, sum.Equal(timesheet.TotalsOf(entries, timesheet.DefaultSchedule()).Total))
}

func TestSummarize_ByDay(t *testing.T) {
	sums := timesheet.Summarize(weekFixture(), timesheet.GroupByDay, timesheet.DefaultSchedule())

	require.Len(t, sums, 5)
	assert.Equal(t, "2026-03-09", sums[0].Key)
	assert.Equal(t, "2026-03-15", sums[4].Key)

	fri := sums[2]
	assert.Equal(t, "2026-03-13", fri.Key)
	assertHours(t, "3.5", fri.Totals.Total)
	assertHours(t, "1.5", fri.ByClient["acme"])
	assertHours(t, "2", fri.ByClient["globex"])
}

func TestSummarize_ByWeekAndMonth(t *testing.T) {
	entries := append(weekFixture(), withStatus(hourEntry("n1", monday.AddDate(0, 0, 7), "4", ""), timesheet.StatusApproved))

	weeks := timesheet.Summarize(entries, timesheet.GroupByWeek, timesheet.DefaultSchedule())
	require.Len(t, weeks, 2)
	assert.Equal(t, "2026-W11", weeks[0].Key)
	assert.Equal(t, monday, weeks[0].Start)
	assert.Equal(t, sunday, weeks[0].End)
	assertHours(t, "31.5", weeks[0].Totals.Total)
	assertHours(t, "4", weeks[1].Totals.Total)

	months := timesheet.Summarize(entries, timesheet.GroupByMonth, timesheet.DefaultSchedule())
	require.Len(t, months, 1)
	assert.Equal(t, "2026-03", months[0].Key)
	assertHours(t, "35.5", months[0].Totals.Total)
}

func TestSummarize_ByClientAndEmployee(t *testing.T) {
	entries := weekFixture()
	entries[0].EmployeeID = 8

	clients := timesheet.Summarize(entries, timesheet.GroupByClient, timesheet.DefaultSchedule())
	require.Len(t, clients, 2)
	assert.Equal(t, "acme", clients[0].Key)
	assertHours(t, "29.5", clients[0].Totals.Total)
	assert.Equal(t, "globex", clients[1].Key)

	employees := timesheet.Summarize(entries, timesheet.GroupByEmployee, timesheet.DefaultSchedule())
	require.Len(t, employees, 2)
	assert.Equal(t, "7", employees[0].Key)
	assert.Equal(t, "8", employees[1].Key)
	assertHours(t, "8", employees[1].Totals.Total)
}

func TestWeekReport_SevenDays(t *testing.T) {
	entries := append(weekFixture(), hourEntry("old", monday.AddDate(0, 0, -3), "8", timesheet.StatusApproved))

	report := timesheet.WeekReport(entries, tuesday, timesheet.DefaultSchedule())

	assert.Equal(t, "2026-W11", report.Label)
	require.Len(t, report.Days, 7)
	assert.Equal(t, monday, report.Days[0].Date)
	assert.Equal(t, sunday, report.Days[6].Date)
	assert.Zero(t, report.Days[3].Totals.Entries, "thursday has no entries")
	assertHours(t, "31.5", report.Totals.Total)
	assertHours(t, "3", report.Days[6].Totals.Overtime)
	assertHours(t, "0", report.Days[6].Totals.Normal)
	assertHours(t, "2", report.ByClient["globex"])
}

func TestMonthReport_ClipsToCalendarMonth(t *testing.T) {
	entries := append(weekFixture(),
		hourEntry("feb", timesheet.NewDate(2026, time.February, 27), "8", timesheet.StatusApproved),
		hourEntry("end", timesheet.NewDate(2026, time.March, 31), "4", timesheet.StatusApproved),
	)

	report := timesheet.MonthReport(entries, friday, timesheet.DefaultSchedule())

	assert.Equal(t, "2026-03", report.Label)
	assert.Equal(t, timesheet.NewDate(2026, time.March, 1), report.Period.Start)
	assert.Equal(t, timesheet.NewDate(2026, time.March, 31), report.Period.End)
	assertHours(t, "35.5", report.Totals.Total)
	require.Len(t, report.Weeks, 2)
	assert.Equal(t, "2026-W11", report.Weeks[0].Key)
	assert.Equal(t, "2026-W14", report.Weeks[1].Key)
	assertHours(t, "2", report.ByClient["globex"])
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	entries := weekFixture()
	before := make([]timesheet.TimeEntry, len(entries))
	copy(before, entries)

	_ = timesheet.Summarize(entries, timesheet.GroupByWeek, timesheet.DefaultSchedule())
	assert.Equal(t, before, entries)
}

func TestPendingIn(t *testing.T) {
	pending := timesheet.PendingIn(weekFixture(), timesheet.WeekPeriod(monday))
	assert.Len(t, pending, 3)
}
