/*
approval.go - Approval state machine for time entries

STATES:
  ┌─────────┐  approve           ┌──────────────────────┐
  │ Pending │ ─────────────────▶ │ Approved             │
  │         │  reject            ├──────────────────────┤
  │         │ ─────────────────▶ │ Rejected             │
  │         │  approve normal    ├──────────────────────┤
  │         │ ─────────────────▶ │ ApprovedNormalOnly   │
  └─────────┘  (overtime > 0)    └──────────────────────┘
       ▲                                   │
       └──────── owner edit (Resubmit) ────┘  from Rejected

RULES:
  - Only an approver moves an entry out of Pending, never its owner
  - ApprovedNormalOnly needs a time range with overtime > 0
  - Resubmit is legal from Rejected and from Pending (an edit before
    any decision stays Pending); Approved and ApprovedNormalOnly are final

BULK:
  ApplyBulk runs the single-entry transition on every pending entry in a
  day or week scope. Each entry succeeds or fails on its own; the report
  lists both so callers can retry only the failed subset.
*/
package timesheet

import (
	"sort"
	"time"
)

// Transition moves a pending entry to the target status on behalf of an
// approver and returns the updated copy.
func Transition(entry TimeEntry, to Status, approverID EmployeeID, schedule ScheduleConfig, now time.Time) (TimeEntry, error) {
	if !to.Valid() {
		return TimeEntry{}, ErrUnknownStatus
	}
	if approverID == entry.EmployeeID {
		return TimeEntry{}, ErrSelfApproval
	}
	if entry.Status != StatusPending {
		return TimeEntry{}, &IllegalTransitionError{
			EntryID: entry.ID, From: entry.Status, To: to,
			Reason: "only pending entries can change status",
		}
	}

	switch to {
	case StatusPending:
		return TimeEntry{}, &IllegalTransitionError{EntryID: entry.ID, From: entry.Status, To: to}
	case StatusApprovedNormalOnly:
		if !entry.HasRange() {
			return TimeEntry{}, &IllegalTransitionError{
				EntryID: entry.ID, From: entry.Status, To: to,
				Reason: "entry has no time range to split",
			}
		}
		if !entry.Split(schedule).HasOvertime() {
			return TimeEntry{}, &IllegalTransitionError{
				EntryID: entry.ID, From: entry.Status, To: to,
				Reason: "entry has no overtime",
			}
		}
	}

	entry.Status = to
	entry.ApproverID = &approverID
	entry.UpdatedAt = now
	return entry, nil
}

// Resubmit returns an owner-edited entry to Pending. Only pending and
// rejected entries may be edited.
func Resubmit(entry TimeEntry, now time.Time) (TimeEntry, error) {
	switch entry.Status {
	case StatusPending, StatusRejected:
	default:
		return TimeEntry{}, &IllegalTransitionError{
			EntryID: entry.ID, From: entry.Status, To: StatusPending,
			Reason: "approved entries cannot be edited",
		}
	}
	entry.Status = StatusPending
	entry.ApproverID = nil
	entry.UpdatedAt = now
	return entry, nil
}

// =============================================================================
// BULK TRANSITIONS
// =============================================================================

type ScopeKind string

const (
	ScopeDay  ScopeKind = "day"
	ScopeWeek ScopeKind = "week"
)

// Valid reports whether k is a known scope kind.
func (k ScopeKind) Valid() bool { return k == ScopeDay || k == ScopeWeek }

// Scope selects the entries a bulk transition applies to. Zero-valued
// filters match everything.
type Scope struct {
	Kind       ScopeKind
	Date       time.Time
	EmployeeID *EmployeeID
	ClientKey  string
}

// Period returns the days covered by the scope.
func (s Scope) Period() Period {
	if s.Kind == ScopeWeek {
		return WeekPeriod(s.Date)
	}
	return DayPeriod(s.Date)
}

// Matches reports whether an entry falls inside the scope.
func (s Scope) Matches(e TimeEntry) bool {
	if !s.Period().Contains(e.WorkDate) {
		return false
	}
	if s.EmployeeID != nil && e.EmployeeID != *s.EmployeeID {
		return false
	}
	if s.ClientKey != "" && e.ClientKey != s.ClientKey {
		return false
	}
	return true
}

// BulkFailure records one entry that could not transition.
type BulkFailure struct {
	Entry TimeEntry
	Err   error
}

// BulkReport is the outcome of a bulk transition.
type BulkReport struct {
	Transitioned []TimeEntry
	Failed       []BulkFailure
	Skipped      []TimeEntry // in scope but not pending
}

// ApplyBulk transitions every pending entry in scope. Entries outside the
// scope are ignored; entries in a terminal state are skipped untouched.
func ApplyBulk(entries []TimeEntry, scope Scope, to Status, approverID EmployeeID, schedule ScheduleConfig, now time.Time) BulkReport {
	var report BulkReport
	for _, e := range sortedByDate(entries) {
		if !scope.Matches(e) {
			continue
		}
		if e.Status != StatusPending {
			report.Skipped = append(report.Skipped, e)
			continue
		}
		updated, err := Transition(e, to, approverID, schedule, now)
		if err != nil {
			report.Failed = append(report.Failed, BulkFailure{Entry: e, Err: err})
			continue
		}
		report.Transitioned = append(report.Transitioned, updated)
	}
	return report
}

func sortedByDate(entries []TimeEntry) []TimeEntry {
	out := make([]TimeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
