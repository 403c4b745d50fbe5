package timesheet_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

const approver timesheet.EmployeeID = 1

var approvedAt = time.Date(2026, time.March, 16, 10, 0, 0, 0, time.UTC)

func pendingRange(id string, day time.Time, start, end string) timesheet.TimeEntry {
	e := rangeEntry(day, start, end)
	e.ID = timesheet.EntryID(id)
	e.Hours = timesheet.HoursBetween(*e.Start, *e.End)
	e.Status = timesheet.StatusPending
	return e
}

// =============================================================================
// SINGLE TRANSITIONS
// =============================================================================

func TestTransition_PendingToApproved(t *testing.T) {
	e := pendingRange("e1", tuesday, "08:00", "12:00")

	got, err := timesheet.Transition(e, timesheet.StatusApproved, approver, timesheet.DefaultSchedule(), approvedAt)
	require.NoError(t, err)

	assert.Equal(t, timesheet.StatusApproved, got.Status)
	require.NotNil(t, got.ApproverID)
	assert.Equal(t, approver, *got.ApproverID)
	assert.Equal(t, approvedAt, got.UpdatedAt)
	assert.Equal(t, timesheet.StatusPending, e.Status, "input is not mutated")
}

func TestTransition_PendingToRejected(t *testing.T) {
	got, err := timesheet.Transition(pendingRange("e1", tuesday, "08:00", "12:00"),
		timesheet.StatusRejected, approver, timesheet.DefaultSchedule(), approvedAt)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, got.Status)
}

func TestTransition_ApprovedNormalOnlyNeedsOvertime(t *testing.T) {
	sched := timesheet.DefaultSchedule()

	withOvertime := pendingRange("e1", tuesday, "07:00", "18:00")
	got, err := timesheet.Transition(withOvertime, timesheet.StatusApprovedNormalOnly, approver, sched, approvedAt)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApprovedNormalOnly, got.Status)

	noOvertime := pendingRange("e2", tuesday, "08:00", "12:00")
	_, err = timesheet.Transition(noOvertime, timesheet.StatusApprovedNormalOnly, approver, sched, approvedAt)
	assert.ErrorIs(t, err, timesheet.ErrIllegalTransition)

	var ite *timesheet.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "entry has no overtime", ite.Reason)

	legacy := hourEntry("e3", tuesday, "4", timesheet.StatusPending)
	_, err = timesheet.Transition(legacy, timesheet.StatusApprovedNormalOnly, approver, sched, approvedAt)
	assert.ErrorIs(t, err, timesheet.ErrIllegalTransition)
}

func TestTransition_TerminalStatesDoNotMove(t *testing.T) {
	sched := timesheet.DefaultSchedule()
	terminal := []timesheet.Status{
		timesheet.StatusApproved,
		timesheet.StatusRejected,
		timesheet.StatusApprovedNormalOnly,
	}
	targets := append([]timesheet.Status{timesheet.StatusPending}, terminal...)

	for _, from := range terminal {
		for _, to := range targets {
			e := pendingRange("e1", tuesday, "07:00", "18:00")
			e.Status = from
			_, err := timesheet.Transition(e, to, approver, sched, approvedAt)
			assert.ErrorIs(t, err, timesheet.ErrIllegalTransition, "%s -> %s", from, to)
		}
	}
}

func TestTransition_OwnerCannotApproveOwnEntry(t *testing.T) {
	_, err := timesheet.Transition(pendingRange("e1", tuesday, "08:00", "12:00"),
		timesheet.StatusApproved, worker, timesheet.DefaultSchedule(), approvedAt)
	assert.ErrorIs(t, err, timesheet.ErrSelfApproval)
	assert.True(t, timesheet.IsConflict(err))
}

func TestResubmit(t *testing.T) {
	rejected := pendingRange("e1", tuesday, "08:00", "12:00")
	rejected.Status = timesheet.StatusRejected
	rejected.ApproverID = func() *timesheet.EmployeeID { a := approver; return &a }()

	got, err := timesheet.Resubmit(rejected, approvedAt)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPending, got.Status)
	assert.Nil(t, got.ApproverID)

	approved := rejected
	approved.Status = timesheet.StatusApproved
	_, err = timesheet.Resubmit(approved, approvedAt)
	assert.ErrorIs(t, err, timesheet.ErrIllegalTransition)
}

func TestEntryPatch_CheckExpected(t *testing.T) {
	stored := pendingRange("e1", tuesday, "08:00", "12:00")
	stored.Status = timesheet.StatusApproved

	pending, rejected := timesheet.StatusPending, timesheet.StatusRejected
	assert.NoError(t, timesheet.EntryPatch{Status: &rejected}.CheckExpected(stored), "no guard")

	err := timesheet.EntryPatch{Status: &rejected, ExpectStatus: &pending}.CheckExpected(stored)
	var illegal *timesheet.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, timesheet.StatusApproved, illegal.From)
	assert.Equal(t, timesheet.StatusRejected, illegal.To)
	assert.True(t, timesheet.IsConflict(err))

	approved := timesheet.StatusApproved
	assert.NoError(t, timesheet.EntryPatch{ExpectStatus: &approved}.CheckExpected(stored))
}

func TestScopeKind_Valid(t *testing.T) {
	assert.True(t, timesheet.ScopeDay.Valid())
	assert.True(t, timesheet.ScopeWeek.Valid())
	assert.False(t, timesheet.ScopeKind("month").Valid())
	assert.False(t, timesheet.ScopeKind("").Valid())
}

// =============================================================================
// BULK TRANSITIONS
// =============================================================================

func TestApplyBulk_ApprovesOnlyPending(t *testing.T) {
	// GIVEN: 5 pending and 2 approved entries in the same week
	var entries []timesheet.TimeEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, pendingRange(fmt.Sprintf("p%d", i), monday.AddDate(0, 0, i), "08:00", "12:00"))
	}
	for i := 0; i < 2; i++ {
		e := pendingRange(fmt.Sprintf("a%d", i), monday.AddDate(0, 0, i), "13:00", "15:00")
		e.Status = timesheet.StatusApproved
		entries = append(entries, e)
	}

	// WHEN: Approving all pending for the week
	scope := timesheet.Scope{Kind: timesheet.ScopeWeek, Date: friday}
	report := timesheet.ApplyBulk(entries, scope, timesheet.StatusApproved, approver, timesheet.DefaultSchedule(), approvedAt)

	// THEN: Exactly the 5 pending move, the 2 approved are untouched
	assert.Len(t, report.Transitioned, 5)
	assert.Len(t, report.Skipped, 2)
	assert.Empty(t, report.Failed)
	for _, e := range report.Transitioned {
		assert.Equal(t, timesheet.StatusApproved, e.Status)
		assert.Equal(t, "p", string(e.ID[:1]))
	}
}

func TestApplyBulk_DayScopeAndFilters(t *testing.T) {
	other := pendingRange("x1", tuesday, "08:00", "12:00")
	other.EmployeeID = 42
	entries := []timesheet.TimeEntry{
		pendingRange("e1", tuesday, "08:00", "12:00"),
		pendingRange("e2", monday, "08:00", "12:00"),
		other,
	}

	report := timesheet.ApplyBulk(entries, timesheet.Scope{Kind: timesheet.ScopeDay, Date: tuesday},
		timesheet.StatusRejected, approver, timesheet.DefaultSchedule(), approvedAt)
	assert.Len(t, report.Transitioned, 2)

	emp := worker
	report = timesheet.ApplyBulk(entries, timesheet.Scope{Kind: timesheet.ScopeDay, Date: tuesday, EmployeeID: &emp},
		timesheet.StatusRejected, approver, timesheet.DefaultSchedule(), approvedAt)
	require.Len(t, report.Transitioned, 1)
	assert.Equal(t, timesheet.EntryID("e1"), report.Transitioned[0].ID)
}

func TestApplyBulk_PartialFailureDoesNotBlockOthers(t *testing.T) {
	// Approve-normal-only over a week: entries without overtime fail alone.
	entries := []timesheet.TimeEntry{
		pendingRange("e1", monday, "07:00", "18:00"),
		pendingRange("e2", tuesday, "08:00", "12:00"),
		pendingRange("e3", sunday, "09:00", "11:00"),
	}

	report := timesheet.ApplyBulk(entries, timesheet.Scope{Kind: timesheet.ScopeWeek, Date: monday},
		timesheet.StatusApprovedNormalOnly, approver, timesheet.DefaultSchedule(), approvedAt)

	require.Len(t, report.Transitioned, 2)
	assert.Equal(t, timesheet.EntryID("e1"), report.Transitioned[0].ID)
	assert.Equal(t, timesheet.EntryID("e3"), report.Transitioned[1].ID)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, timesheet.EntryID("e2"), report.Failed[0].Entry.ID)
	assert.ErrorIs(t, report.Failed[0].Err, timesheet.ErrIllegalTransition)
}

func TestParseLegacyStatus(t *testing.T) {
	want := []timesheet.Status{
		timesheet.StatusPending,
		timesheet.StatusApproved,
		timesheet.StatusRejected,
		timesheet.StatusApprovedNormalOnly,
	}
	for code, status := range want {
		got, err := timesheet.ParseLegacyStatus(code)
		require.NoError(t, err)
		assert.Equal(t, status, got)
	}
	_, err := timesheet.ParseLegacyStatus(4)
	assert.ErrorIs(t, err, timesheet.ErrUnknownStatus)
}
