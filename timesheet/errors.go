/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Expected conditions (limit exceeded, illegal transition) are returned as
  values; only malformed input aborts an operation outright.

ERROR CATEGORIES:
  1. Validation failures - one sentinel per rejection reason, wrapped by
     *ValidationFailure which carries the data the UI needs
  2. Illegal transitions - *IllegalTransitionError
  3. Input errors - malformed clock/date/settings values
  4. Store errors - not found

CONFIGURATION FALLBACK:
  A missing settings key is NOT an error. It resolves to a default and is
  recorded in ScheduleConfig.Fallbacks (see schedule.go).

USAGE:
  _, err := v.Validate(candidate, existing, opts)
  var vf *timesheet.ValidationFailure
  if errors.As(err, &vf) && vf.Reason == timesheet.ReasonWeeklyLimit {
      // vf.Remaining hours are still available this week
  }
*/
package timesheet

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrMissingField        = errors.New("required field missing")
	ErrInvalidRange        = errors.New("invalid time range")
	ErrAreaMismatch        = errors.New("area does not belong to client")
	ErrDailyLimitExceeded  = errors.New("daily limit exceeded")
	ErrWeeklyLimitExceeded = errors.New("weekly limit exceeded")
	ErrDayClosed           = errors.New("day is closed for entries")
	ErrEvidenceMissing     = errors.New("on-site evidence missing")
	ErrDateInFuture        = errors.New("work date is in the future")

	// ErrIllegalTransition is wrapped by every *IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrSelfApproval is returned when an owner tries to approve their own entry.
	ErrSelfApproval = errors.New("owner cannot change approval status of own entry")

	ErrUnknownStatus    = errors.New("unknown approval status")
	ErrMalformedClock   = errors.New("malformed time of day")
	ErrMalformedDate    = errors.New("malformed date")
	ErrMalformedSetting = errors.New("malformed setting")

	ErrEntryNotFound = errors.New("entry not found")
)

// =============================================================================
// VALIDATION FAILURE
// =============================================================================

// Reason identifies which acceptance rule rejected an entry.
type Reason string

const (
	ReasonMissingField    Reason = "missing_field"
	ReasonInvalidRange    Reason = "invalid_range"
	ReasonAreaMismatch    Reason = "area_mismatch"
	ReasonDailyLimit      Reason = "daily_limit_exceeded"
	ReasonWeeklyLimit     Reason = "weekly_limit_exceeded"
	ReasonDayClosed       Reason = "day_closed"
	ReasonEvidenceMissing Reason = "evidence_missing"
	ReasonDateInFuture    Reason = "date_in_future"
)

var reasonErrors = map[Reason]error{
	ReasonMissingField:    ErrMissingField,
	ReasonInvalidRange:    ErrInvalidRange,
	ReasonAreaMismatch:    ErrAreaMismatch,
	ReasonDailyLimit:      ErrDailyLimitExceeded,
	ReasonWeeklyLimit:     ErrWeeklyLimitExceeded,
	ReasonDayClosed:       ErrDayClosed,
	ReasonEvidenceMissing: ErrEvidenceMissing,
	ReasonDateInFuture:    ErrDateInFuture,
}

// ValidationFailure explains why an entry was not accepted. Limit and
// Remaining are set for the two ceiling reasons.
type ValidationFailure struct {
	Reason    Reason
	Field     string // for missing_field / evidence_missing
	Date      time.Time
	Limit     decimal.Decimal
	Remaining decimal.Decimal
	Detail    string
}

func (e *ValidationFailure) Error() string {
	switch e.Reason {
	case ReasonDailyLimit:
		return fmt.Sprintf("daily limit exceeded, %sh remaining (limit %sh)",
			e.Remaining.String(), e.Limit.String())
	case ReasonWeeklyLimit:
		return fmt.Sprintf("weekly limit exceeded, %sh remaining this week (limit %sh)",
			e.Remaining.String(), e.Limit.String())
	case ReasonDayClosed:
		return fmt.Sprintf("%s is closed for entries", e.Date.Format(time.DateOnly))
	case ReasonMissingField, ReasonEvidenceMissing:
		return fmt.Sprintf("%s: %s", reasonErrors[e.Reason], e.Field)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", reasonErrors[e.Reason], e.Detail)
	}
	return reasonErrors[e.Reason].Error()
}

func (e *ValidationFailure) Unwrap() error { return reasonErrors[e.Reason] }

// =============================================================================
// ILLEGAL TRANSITION
// =============================================================================

type IllegalTransitionError struct {
	EntryID EntryID
	From    Status
	To      Status
	Reason  string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
	if e.EntryID != "" {
		msg += " for entry " + string(e.EntryID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationFailure returns the failure when err carries one.
func IsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	if _, ok := IsValidationFailure(err); ok {
		return true
	}
	return errors.Is(err, ErrMalformedClock) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrMalformedSetting) ||
		errors.Is(err, ErrUnknownStatus)
}

// IsConflict returns true for transitions the current status does not allow.
func IsConflict(err error) bool {
	return errors.Is(err, ErrIllegalTransition) || errors.Is(err, ErrSelfApproval)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}
