/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the timesheet domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FORMATS:
  Dates are "YYYY-MM-DD", clock times "HH:MM", hours are decimal strings
  ("8.5") so clients never see float rounding.

TYPES:
  Entries:   EntryDTO, EntryRequest
  Approval:  ApprovalRequest, BulkApprovalRequest, BulkResultDTO
  Summaries: SummaryDTO, TotalsDTO, WeeklyReportDTO, MonthlyReportDTO
  Schedule:  SettingsDTO, ScheduleDTO, SplitPreviewRequest, SplitDTO
  Scenarios: ScenarioDTO

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// ENTRIES
// =============================================================================

// EntryDTO represents a time entry in API responses.
type EntryDTO struct {
	ID            string  `json:"id"`
	EmployeeID    int64   `json:"employee_id"`
	ClientKey     string  `json:"client_key"`
	AreaName      string  `json:"area_name"`
	WorkDate      string  `json:"work_date"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Hours         string  `json:"hours"`
	NormalHours   string  `json:"normal_hours"`
	OvertimeHours string  `json:"overtime_hours"`
	Status        string  `json:"status"`
	ApproverID    *int64  `json:"approver_id,omitempty"`
	Description   string  `json:"description"`
	ActivityKind  string  `json:"activity_kind"`
	Location      string  `json:"location,omitempty"`
	Signature     string  `json:"signature,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// EntryRequest is the body for creating or editing an entry. Either
// start_time/end_time or hours must be given.
type EntryRequest struct {
	ClientKey    string  `json:"client_key"`
	AreaName     string  `json:"area_name"`
	WorkDate     string  `json:"work_date"`
	StartTime    string  `json:"start_time,omitempty"`
	EndTime      string  `json:"end_time,omitempty"`
	Hours        *string `json:"hours,omitempty"`
	Description  string  `json:"description"`
	ActivityKind string  `json:"activity_kind,omitempty"`
	Location     string  `json:"location,omitempty"`
	Signature    string  `json:"signature,omitempty"`

	// ActorID identifies who is editing. When set it must be the owner.
	ActorID *int64 `json:"actor_id,omitempty"`
}

// =============================================================================
// APPROVAL
// =============================================================================

// ApprovalRequest is the body for a single status change.
type ApprovalRequest struct {
	ApproverID int64 `json:"approver_id"`
}

// BulkApprovalRequest approves or rejects everything pending in a day or week.
type BulkApprovalRequest struct {
	ApproverID int64  `json:"approver_id"`
	Action     string `json:"action"` // approve, reject, approve_normal
	Scope      string `json:"scope"`  // day, week
	Date       string `json:"date"`
	EmployeeID *int64 `json:"employee_id,omitempty"`
	ClientKey  string `json:"client_key,omitempty"`
}

// BulkFailureDTO is one entry that could not change status.
type BulkFailureDTO struct {
	EntryID string `json:"entry_id"`
	Error   string `json:"error"`
}

// BulkResultDTO reports the outcome of a bulk approval.
type BulkResultDTO struct {
	Transitioned []EntryDTO       `json:"transitioned"`
	Failed       []BulkFailureDTO `json:"failed"`
	Skipped      int              `json:"skipped"`
}

// =============================================================================
// SUMMARIES
// =============================================================================

// TotalsDTO is the hour breakdown of a set of entries.
type TotalsDTO struct {
	Total    string `json:"total_hours"`
	Normal   string `json:"normal_hours"`
	Overtime string `json:"overtime_hours"`
	Approved string `json:"approved_hours"`
	Rejected string `json:"rejected_hours"`
	Pending  string `json:"pending_hours"`
	Entries  int    `json:"entries"`
}

// SummaryDTO is one group in a summary listing.
type SummaryDTO struct {
	Key      string            `json:"key"`
	Start    string            `json:"start,omitempty"`
	End      string            `json:"end,omitempty"`
	Totals   TotalsDTO         `json:"totals"`
	ByClient map[string]string `json:"by_client"`
}

// DailySummaryDTO is one day of a weekly report.
type DailySummaryDTO struct {
	Date    string    `json:"date"`
	Weekday string    `json:"weekday"`
	Totals  TotalsDTO `json:"totals"`
}

// WeeklyReportDTO is the Monday to Sunday report.
type WeeklyReportDTO struct {
	Week           string            `json:"week"`
	Start          string            `json:"start"`
	End            string            `json:"end"`
	Totals         TotalsDTO         `json:"totals"`
	Days           []DailySummaryDTO `json:"days"`
	ByClient       map[string]string `json:"by_client"`
	WeeklyLimit    string            `json:"weekly_limit"`
	RemainingHours string            `json:"remaining_hours"`
}

// MonthlyReportDTO is the calendar-month report with its ISO weeks.
type MonthlyReportDTO struct {
	Month    string            `json:"month"`
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Totals   TotalsDTO         `json:"totals"`
	Weeks    []SummaryDTO      `json:"weeks"`
	ByClient map[string]string `json:"by_client"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// ScheduleDTO is the resolved schedule, defaults filled in.
type ScheduleDTO struct {
	WeekdayWindow  string            `json:"weekday_window"`
	FridayWindow   string            `json:"friday_window"`
	SaturdayWindow string            `json:"saturday_window"`
	WeeklyLimit    string            `json:"weekly_limit"`
	DailyLimits    map[string]string `json:"daily_limits"`
	Fallbacks      []string          `json:"fallbacks"`
}

// SettingsDTO returns both the raw stored map and what it resolves to.
type SettingsDTO struct {
	Settings map[string]string `json:"settings"`
	Schedule ScheduleDTO       `json:"schedule"`
}

// SplitPreviewRequest asks how an interval would split before submitting.
type SplitPreviewRequest struct {
	WorkDate  string `json:"work_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SplitDTO is a normal/overtime split.
type SplitDTO struct {
	NormalHours   string `json:"normal_hours"`
	OvertimeHours string `json:"overtime_hours"`
	TotalHours    string `json:"total_hours"`
	NormalWindow  string `json:"normal_window,omitempty"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response. Validation failures fill
// the reason fields so the UI can show the remaining hours.
type ErrorResponse struct {
	Error          string `json:"error"`
	Details        string `json:"details,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Field          string `json:"field,omitempty"`
	LimitHours     string `json:"limit_hours,omitempty"`
	RemainingHours string `json:"remaining_hours,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(e timesheet.TimeEntry, schedule timesheet.ScheduleConfig) EntryDTO {
	split := e.Split(schedule)
	overtime := decimal.Min(split.OvertimeHours(), e.Hours)

	dto := EntryDTO{
		ID:            string(e.ID),
		EmployeeID:    int64(e.EmployeeID),
		ClientKey:     e.ClientKey,
		AreaName:      e.AreaName,
		WorkDate:      e.WorkDate.Format(time.DateOnly),
		Hours:         e.Hours.String(),
		NormalHours:   e.Hours.Sub(overtime).String(),
		OvertimeHours: overtime.String(),
		Status:        string(e.Status),
		Description:   e.Description,
		ActivityKind:  string(e.ActivityKind),
		Location:      e.Location,
		Signature:     e.Signature,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     e.UpdatedAt.Format(time.RFC3339),
	}
	if e.HasRange() {
		start, end := e.Start.String(), e.End.String()
		dto.StartTime, dto.EndTime = &start, &end
	}
	if e.ApproverID != nil {
		a := int64(*e.ApproverID)
		dto.ApproverID = &a
	}
	return dto
}

func toEntryDTOs(entries []timesheet.TimeEntry, schedule timesheet.ScheduleConfig) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e, schedule)
	}
	return dtos
}

func toTotalsDTO(t timesheet.Totals) TotalsDTO {
	return TotalsDTO{
		Total:    t.Total.String(),
		Normal:   t.Normal.String(),
		Overtime: t.Overtime.String(),
		Approved: t.Approved.String(),
		Rejected: t.Rejected.String(),
		Pending:  t.Pending.String(),
		Entries:  t.Entries,
	}
}

func toHoursMap(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

func toSummaryDTO(s timesheet.Summary) SummaryDTO {
	dto := SummaryDTO{
		Key:      s.Key,
		Totals:   toTotalsDTO(s.Totals),
		ByClient: toHoursMap(s.ByClient),
	}
	if !s.Start.IsZero() {
		dto.Start = s.Start.Format(time.DateOnly)
		dto.End = s.End.Format(time.DateOnly)
	}
	return dto
}

func toWeeklyReportDTO(ws timesheet.WeeklySummary, schedule timesheet.ScheduleConfig) WeeklyReportDTO {
	// Rejected hours, including cut overtime, do not use up the ceiling.
	counted := ws.Totals.Total.Sub(ws.Totals.Rejected)
	remaining := schedule.WeeklyLimit().Sub(counted)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	dto := WeeklyReportDTO{
		Week:           ws.Label,
		Start:          ws.Period.Start.Format(time.DateOnly),
		End:            ws.Period.End.Format(time.DateOnly),
		Totals:         toTotalsDTO(ws.Totals),
		Days:           make([]DailySummaryDTO, len(ws.Days)),
		ByClient:       toHoursMap(ws.ByClient),
		WeeklyLimit:    schedule.WeeklyLimit().String(),
		RemainingHours: remaining.String(),
	}
	for i, d := range ws.Days {
		dto.Days[i] = DailySummaryDTO{
			Date:    d.Date.Format(time.DateOnly),
			Weekday: d.Date.Weekday().String(),
			Totals:  toTotalsDTO(d.Totals),
		}
	}
	return dto
}

func toMonthlyReportDTO(ms timesheet.MonthlySummary) MonthlyReportDTO {
	dto := MonthlyReportDTO{
		Month:    ms.Label,
		Start:    ms.Period.Start.Format(time.DateOnly),
		End:      ms.Period.End.Format(time.DateOnly),
		Totals:   toTotalsDTO(ms.Totals),
		Weeks:    make([]SummaryDTO, len(ms.Weeks)),
		ByClient: toHoursMap(ms.ByClient),
	}
	for i, w := range ms.Weeks {
		dto.Weeks[i] = toSummaryDTO(w)
	}
	return dto
}

func toScheduleDTO(s timesheet.ScheduleConfig) ScheduleDTO {
	dto := ScheduleDTO{
		WeekdayWindow:  s.Weekday.String(),
		FridayWindow:   s.Friday.String(),
		SaturdayWindow: s.Saturday.String(),
		WeeklyLimit:    s.WeeklyLimit().String(),
		DailyLimits:    make(map[string]string, 7),
		Fallbacks:      append([]string{}, s.Fallbacks...),
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		dto.DailyLimits[wd.String()] = s.DailyMax(wd).String()
	}
	sort.Strings(dto.Fallbacks)
	return dto
}

func toSplitDTO(split timesheet.Split, window timesheet.Window, hasWindow bool) SplitDTO {
	dto := SplitDTO{
		NormalHours:   split.NormalHours().String(),
		OvertimeHours: split.OvertimeHours().String(),
		TotalHours:    split.TotalHours().String(),
	}
	if hasWindow {
		dto.NormalWindow = window.String()
	}
	return dto
}
