/*
Package timesheet provides the time-accounting and approval engine.

PURPOSE:
  Pure rules behind the timesheet dashboards: validating a proposed
  work-hours entry against daily/weekly ceilings, splitting a worked
  interval into normal and overtime minutes, driving the approval state
  machine, and aggregating entries into summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: the unit of work record
  - Status: closed four-variant approval status
  - ActivityKind: remote vs on-site work (on-site needs evidence)

DESIGN PRINCIPLES:
  1. No ambient state: every function takes the schedule and "now" explicitly
  2. Precision: hours are decimal.Decimal, never float64
  3. Tagged failures: each rejection carries structured data for the UI
  4. Storage-agnostic: callers fetch entries and persist the results

SEE ALSO:
  - schedule.go: ScheduleConfig and settings resolution
  - overtime.go: normal/overtime split
  - validator.go: entry acceptance rules
  - approval.go: status transitions and bulk operations
  - aggregate.go: summaries
*/
package timesheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type EmployeeID int64

// =============================================================================
// APPROVAL STATUS
// =============================================================================

type Status string

const (
	StatusPending            Status = "pending"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusApprovedNormalOnly Status = "approved_normal_only"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusApprovedNormalOnly:
		return true
	}
	return false
}

// Terminal reports whether only an owner resubmission can move s.
func (s Status) Terminal() bool { return s != StatusPending }

// ParseStatus parses the string form of a status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// ParseLegacyStatus maps the integer codes used by the older store
// (0 pending, 1 approved, 2 rejected, 3 approved without overtime).
func ParseLegacyStatus(code int) (Status, error) {
	switch code {
	case 0:
		return StatusPending, nil
	case 1:
		return StatusApproved, nil
	case 2:
		return StatusRejected, nil
	case 3:
		return StatusApprovedNormalOnly, nil
	}
	return "", fmt.Errorf("%w: legacy code %d", ErrUnknownStatus, code)
}

// =============================================================================
// ACTIVITY KIND
// =============================================================================

type ActivityKind string

const (
	ActivityRemote ActivityKind = "remote"
	ActivityOnSite ActivityKind = "on_site"
)

// =============================================================================
// TIME ENTRY
// =============================================================================

// TimeEntry is a single record of hours worked by one employee on one day.
//
// Start and End are optional: entries captured with a time range carry both
// and derive Hours from them; legacy entries carry Hours only.
type TimeEntry struct {
	ID         EntryID
	EmployeeID EmployeeID
	ClientKey  string
	AreaName   string
	WorkDate   time.Time // UTC midnight
	Start      *Clock
	End        *Clock
	Hours      decimal.Decimal

	Status     Status
	ApproverID *EmployeeID

	Description  string
	ActivityKind ActivityKind
	Location     string
	Signature    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRange reports whether the entry was captured with start/end times.
func (e TimeEntry) HasRange() bool { return e.Start != nil && e.End != nil }

// Split returns the normal/overtime split for a time-range entry. Legacy
// entries have no interval, so all of their hours count as normal.
func (e TimeEntry) Split(schedule ScheduleConfig) Split {
	if !e.HasRange() {
		minutes := int(e.Hours.Mul(decimal.NewFromInt(60)).Round(0).IntPart())
		return Split{NormalMinutes: minutes, TotalMinutes: minutes}
	}
	return SplitOvertime(e.WorkDate, *e.Start, *e.End, schedule)
}

// overtimeHours is the overtime portion of Hours, rounded once so that
// normal + overtime always equals Hours exactly.
func (e TimeEntry) overtimeHours(schedule ScheduleConfig) decimal.Decimal {
	ot := e.Split(schedule).OvertimeHours()
	if ot.GreaterThan(e.Hours) {
		return e.Hours
	}
	return ot
}

// EntryPatch carries the fields an update may change. Nil fields are
// left untouched by the store.
type EntryPatch struct {
	ClientKey     *string
	AreaName      *string
	WorkDate      *time.Time
	Start         *Clock
	End           *Clock
	ClearRange    bool
	Hours         *decimal.Decimal
	Status        *Status
	ApproverID    *EmployeeID
	ClearApprover bool
	Description   *string
	ActivityKind  *ActivityKind
	Location      *string
	Signature     *string
	UpdatedAt     time.Time

	// ExpectStatus, when set, makes the store refuse the patch unless the
	// stored entry still has this status.
	ExpectStatus *Status
}

// CheckExpected returns an *IllegalTransitionError when the stored entry
// no longer has the status the patch was computed from. Stores call it
// under the same lock or transaction as the write.
func (p EntryPatch) CheckExpected(stored TimeEntry) error {
	if p.ExpectStatus == nil || stored.Status == *p.ExpectStatus {
		return nil
	}
	to := stored.Status
	if p.Status != nil {
		to = *p.Status
	}
	return &IllegalTransitionError{
		EntryID: stored.ID, From: stored.Status, To: to,
		Reason: fmt.Sprintf("entry changed concurrently, expected %s", *p.ExpectStatus),
	}
}

// Apply returns a copy of e with the patch applied.
func (p EntryPatch) Apply(e TimeEntry) TimeEntry {
	if p.ClientKey != nil {
		e.ClientKey = *p.ClientKey
	}
	if p.AreaName != nil {
		e.AreaName = *p.AreaName
	}
	if p.WorkDate != nil {
		e.WorkDate = DateOf(*p.WorkDate)
	}
	if p.ClearRange {
		e.Start, e.End = nil, nil
	}
	if p.Start != nil {
		s := *p.Start
		e.Start = &s
	}
	if p.End != nil {
		en := *p.End
		e.End = &en
	}
	if p.Hours != nil {
		e.Hours = *p.Hours
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ClearApprover {
		e.ApproverID = nil
	}
	if p.ApproverID != nil {
		id := *p.ApproverID
		e.ApproverID = &id
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.ActivityKind != nil {
		e.ActivityKind = *p.ActivityKind
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Signature != nil {
		e.Signature = *p.Signature
	}
	if !p.UpdatedAt.IsZero() {
		e.UpdatedAt = p.UpdatedAt
	}
	return e
}

// PatchFrom builds a full patch that rewrites every mutable field of e.
func PatchFrom(e TimeEntry) EntryPatch {
	p := EntryPatch{
		ClientKey:    &e.ClientKey,
		AreaName:     &e.AreaName,
		WorkDate:     &e.WorkDate,
		Hours:        &e.Hours,
		Status:       &e.Status,
		ApproverID:   e.ApproverID,
		Description:  &e.Description,
		ActivityKind: &e.ActivityKind,
		Location:     &e.Location,
		Signature:    &e.Signature,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.ApproverID == nil {
		p.ClearApprover = true
	}
	if e.HasRange() {
		p.Start, p.End = e.Start, e.End
	} else {
		p.ClearRange = true
	}
	return p
}
