/*
validator.go - Acceptance rules for new and edited time entries

PURPOSE:
  Decides whether a candidate entry may be stored, given the employee's
  already-accepted entries. Each rule fails with its own Reason so the UI
  can tell "3.5h available this week" apart from "this day is closed".

CHECK ORDER:
  0. Work date not in the future
  1. Client and area present, area belongs to client
  2. Time range valid (or legacy hour count on a 0.5h grid)
  3. Description present for time-range capture
  4. Daily ceiling (day closed when the maximum is 0)
  5. Weekly ceiling, Monday-Sunday
  6. On-site evidence (location + signature)

EDITING:
  When the candidate has an ID, the stored entry with that ID is left out
  of the daily and weekly totals so re-saving the same hours never trips
  a ceiling it was already counted under.

SEE ALSO:
  - schedule.go: ceilings
  - approval.go: Resubmit resets an edited entry to pending
*/
package timesheet

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AreaCatalog is the client/area collaborator.
type AreaCatalog interface {
	// AreasFor lists the work areas associated with a client.
	AreasFor(clientKey string) []string
}

// ClientAreas is a map-backed AreaCatalog.
type ClientAreas map[string][]string

func (c ClientAreas) AreasFor(clientKey string) []string { return c[clientKey] }

// SubmitOptions carries caller policy for a submission.
type SubmitOptions struct {
	// AutoApprove marks the entry approved on acceptance, used when a
	// coordinator records their own hours.
	AutoApprove bool
	SubmittedBy EmployeeID
}

// Validator checks candidates against a schedule. Areas may be nil, which
// skips the client/area cross-reference.
type Validator struct {
	Schedule ScheduleConfig
	Areas    AreaCatalog
	Now      time.Time
}

var minGranularity = decimal.NewFromFloat(0.5)

// Validate returns the accepted entry or a *ValidationFailure.
func (v *Validator) Validate(candidate TimeEntry, existing []TimeEntry, opts SubmitOptions) (TimeEntry, error) {
	e := candidate
	e.WorkDate = DateOf(e.WorkDate)
	e.ClientKey = strings.TrimSpace(e.ClientKey)
	e.AreaName = strings.TrimSpace(e.AreaName)

	if !v.Now.IsZero() && e.WorkDate.After(DateOf(v.Now)) {
		return TimeEntry{}, &ValidationFailure{Reason: ReasonDateInFuture, Date: e.WorkDate}
	}

	if err := v.checkClientArea(e); err != nil {
		return TimeEntry{}, err
	}

	hours, err := v.checkRange(e)
	if err != nil {
		return TimeEntry{}, err
	}
	e.Hours = hours

	if e.HasRange() && strings.TrimSpace(e.Description) == "" {
		return TimeEntry{}, &ValidationFailure{Reason: ReasonMissingField, Field: "description"}
	}

	if err := v.checkDaily(e, existing); err != nil {
		return TimeEntry{}, err
	}
	if err := v.checkWeekly(e, existing); err != nil {
		return TimeEntry{}, err
	}

	if e.ActivityKind == ActivityOnSite {
		if strings.TrimSpace(e.Location) == "" {
			return TimeEntry{}, &ValidationFailure{Reason: ReasonEvidenceMissing, Field: "location"}
		}
		if strings.TrimSpace(e.Signature) == "" {
			return TimeEntry{}, &ValidationFailure{Reason: ReasonEvidenceMissing, Field: "signature"}
		}
	}
	if e.ActivityKind == "" {
		e.ActivityKind = ActivityRemote
	}

	e.Status = StatusPending
	e.ApproverID = nil
	if opts.AutoApprove {
		e.Status = StatusApproved
		approver := opts.SubmittedBy
		e.ApproverID = &approver
	}
	return e, nil
}

func (v *Validator) checkClientArea(e TimeEntry) error {
	if e.ClientKey == "" {
		return &ValidationFailure{Reason: ReasonMissingField, Field: "client"}
	}
	if e.AreaName == "" {
		return &ValidationFailure{Reason: ReasonMissingField, Field: "area"}
	}
	if v.Areas == nil {
		return nil
	}
	for _, a := range v.Areas.AreasFor(e.ClientKey) {
		if a == e.AreaName {
			return nil
		}
	}
	return &ValidationFailure{
		Reason: ReasonAreaMismatch,
		Detail: e.AreaName + " is not an area of " + e.ClientKey,
	}
}

func (v *Validator) checkRange(e TimeEntry) (decimal.Decimal, error) {
	if e.Start != nil || e.End != nil {
		if !e.HasRange() {
			return decimal.Zero, &ValidationFailure{Reason: ReasonInvalidRange, Detail: "start and end are both required"}
		}
		if *e.End <= *e.Start {
			return decimal.Zero, &ValidationFailure{Reason: ReasonInvalidRange, Detail: "end must be after start"}
		}
		return HoursBetween(*e.Start, *e.End), nil
	}

	// Legacy hour-count path.
	h := e.Hours
	if !h.IsPositive() {
		return decimal.Zero, &ValidationFailure{Reason: ReasonInvalidRange, Detail: "hours must be positive"}
	}
	if !h.Mod(minGranularity).IsZero() {
		return decimal.Zero, &ValidationFailure{Reason: ReasonInvalidRange, Detail: "hours must be a multiple of 0.5"}
	}
	return h, nil
}

func (v *Validator) checkDaily(e TimeEntry, existing []TimeEntry) error {
	limit := v.Schedule.DailyMax(e.WorkDate.Weekday())
	if limit.IsZero() {
		return &ValidationFailure{Reason: ReasonDayClosed, Date: e.WorkDate}
	}
	used := v.countedHours(e, existing, DayPeriod(e.WorkDate))
	if used.Add(e.Hours).GreaterThan(limit) {
		return &ValidationFailure{
			Reason:    ReasonDailyLimit,
			Date:      e.WorkDate,
			Limit:     limit,
			Remaining: decimal.Max(decimal.Zero, limit.Sub(used)),
		}
	}
	return nil
}

func (v *Validator) checkWeekly(e TimeEntry, existing []TimeEntry) error {
	limit := v.Schedule.WeeklyLimit()
	used := v.countedHours(e, existing, WeekPeriod(e.WorkDate))
	if used.Add(e.Hours).GreaterThan(limit) {
		return &ValidationFailure{
			Reason:    ReasonWeeklyLimit,
			Date:      e.WorkDate,
			Limit:     limit,
			Remaining: decimal.Max(decimal.Zero, limit.Sub(used)),
		}
	}
	return nil
}

// countedHours sums the hours of the employee's other entries in the
// period. Rejected entries count for nothing; approved-normal-only entries
// count only their normal portion.
func (v *Validator) countedHours(e TimeEntry, existing []TimeEntry, p Period) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range existing {
		if x.EmployeeID != e.EmployeeID || !p.Contains(x.WorkDate) {
			continue
		}
		if e.ID != "" && x.ID == e.ID {
			continue
		}
		switch x.Status {
		case StatusRejected:
			continue
		case StatusApprovedNormalOnly:
			sum = sum.Add(x.Hours.Sub(x.overtimeHours(v.Schedule)))
		default:
			sum = sum.Add(x.Hours)
		}
	}
	return sum
}
