/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the timesheet engine via REST API. Handlers fetch entries and
  settings from the store, hand them to the pure timesheet functions, and
  persist what those functions decide.

ENDPOINTS:
  Entries:
    GET    /api/employees/{id}/entries        List an employee's entries
    POST   /api/employees/{id}/entries        Submit an entry
    PUT    /api/entries/{id}                  Owner edit (back to pending)
    GET    /api/employees/{id}/summary        Grouped totals (?group=&from=&to=)
    GET    /api/employees/{id}/weeks/{date}   Weekly report

  Approval:
    GET    /api/coordinators/{id}/entries     Entries for supervised clients
    POST   /api/entries/{id}/approve          pending -> approved
    POST   /api/entries/{id}/reject           pending -> rejected
    POST   /api/entries/{id}/approve-normal   pending -> approved_normal_only
    POST   /api/approvals/bulk                Day/week bulk decision

  Schedule:
    GET    /api/settings                      Stored map + resolved schedule
    PUT    /api/settings                      Upsert settings (blank deletes)
    POST   /api/preview/split                 Normal/overtime preview

  Catalog:
    GET    /api/clients/{key}/areas           Areas of a client

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: entries, settings, catalog
  - Logger: structured logger (log/slog)
  - Now: clock, replaced in tests

WRITES:
  Ceiling checks and status decisions read entries and then write. writeMu
  serializes submissions, edits and decisions so two concurrent requests
  cannot both fit under the same remaining hours or both decide one entry.
  Decision and edit patches also carry the status they were computed
  from; the store refuses them if it changed, which maps to 409.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input (dates, clocks, ids, settings)
  - 403: Approver does not supervise the client, or editor is not the owner
  - 404: Entry or client not found
  - 409: Illegal status transition, self-approval
  - 422: Validation failure (reason, field, limit_hours, remaining_hours)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Actor ids travel in the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API needs: the timesheet contracts plus the admin
// operations used by scenarios.
type Store interface {
	timesheet.Store
	ListAllEntries(ctx context.Context) ([]timesheet.TimeEntry, error)
	SaveClientArea(ctx context.Context, clientKey, areaName string) error
	AssignCoordinator(ctx context.Context, coordinatorID timesheet.EmployeeID, clientKey string) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Logger *slog.Logger
	Now    func() time.Time

	writeMu sync.Mutex

	// Track currently loaded scenario
	scenarioMu      sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:  store,
		Logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// schedule resolves the current settings map into a schedule.
func (h *Handler) schedule(ctx context.Context) (timesheet.ScheduleConfig, error) {
	settings, err := h.Store.Settings(ctx)
	if err != nil {
		return timesheet.ScheduleConfig{}, err
	}
	sched, err := timesheet.ScheduleFromSettings(settings, h.Logger)
	if err != nil {
		// a bad stored value is an operator problem, not the caller's
		return timesheet.ScheduleConfig{}, fmt.Errorf("stored settings: %s", err.Error())
	}
	if len(sched.Fallbacks) > 0 {
		h.Logger.Debug("schedule uses defaults", "keys", sched.Fallbacks)
	}
	return sched, nil
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns an employee's entries ordered by date.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}
	if !from.IsZero() {
		entries = timesheet.InPeriod(entries, timesheet.Period{Start: from, End: to})
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(entries, sched))
}

// SubmitEntry validates and stores a new entry for the employee.
func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	candidate, err := req.toEntry(employeeID)
	if err != nil {
		h.writeDomainError(w, "Invalid entry", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	v, err := h.validator(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	existing, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to load entries", err)
		return
	}

	// Coordinators recording hours on a client they supervise are
	// approved on submission.
	autoApprove, err := h.Store.SupervisesClient(ctx, employeeID, strings.TrimSpace(candidate.ClientKey))
	if err != nil {
		h.writeDomainError(w, "Failed to check coordinator", err)
		return
	}

	accepted, err := v.Validate(candidate, existing, timesheet.SubmitOptions{
		AutoApprove: autoApprove,
		SubmittedBy: employeeID,
	})
	if err != nil {
		h.Logger.Info("entry rejected", "employee", employeeID, "date", req.WorkDate, "error", err)
		h.writeDomainError(w, "Entry not accepted", err)
		return
	}

	now := h.Now()
	accepted.CreatedAt, accepted.UpdatedAt = now, now
	created, err := h.Store.CreateEntry(ctx, accepted)
	if err != nil {
		h.writeDomainError(w, "Failed to save entry", err)
		return
	}

	h.Logger.Info("entry submitted", "entry", created.ID, "employee", employeeID,
		"hours", created.Hours.String(), "status", created.Status)
	writeJSON(w, http.StatusCreated, toEntryDTO(created, v.Schedule))
}

// UpdateEntry lets the owner edit a pending or rejected entry. The edit
// is revalidated and the entry goes back to pending.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ActorID == nil {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	current, err := h.Store.GetEntry(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}
	if timesheet.EmployeeID(*req.ActorID) != current.EmployeeID {
		writeError(w, http.StatusForbidden, "Only the owner can edit an entry", nil)
		return
	}

	now := h.Now()
	if _, err := timesheet.Resubmit(*current, now); err != nil {
		h.writeDomainError(w, "Entry cannot be edited", err)
		return
	}

	candidate, err := req.toEntry(current.EmployeeID)
	if err != nil {
		h.writeDomainError(w, "Invalid entry", err)
		return
	}
	candidate.ID = current.ID
	candidate.CreatedAt = current.CreatedAt

	v, err := h.validator(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	existing, err := h.Store.ListEntriesByEmployee(ctx, current.EmployeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to load entries", err)
		return
	}

	accepted, err := v.Validate(candidate, existing, timesheet.SubmitOptions{})
	if err != nil {
		h.writeDomainError(w, "Edit not accepted", err)
		return
	}
	accepted.UpdatedAt = now

	patch := timesheet.PatchFrom(accepted)
	patch.ExpectStatus = &current.Status
	updated, err := h.Store.UpdateEntry(ctx, id, patch)
	if err != nil {
		h.writeDomainError(w, "Failed to save entry", err)
		return
	}

	h.Logger.Info("entry resubmitted", "entry", id, "employee", updated.EmployeeID, "from", current.Status)
	writeJSON(w, http.StatusOK, toEntryDTO(updated, v.Schedule))
}

func (h *Handler) validator(ctx context.Context) (*timesheet.Validator, error) {
	sched, err := h.schedule(ctx)
	if err != nil {
		return nil, err
	}
	areas, err := h.Store.ClientAreas(ctx)
	if err != nil {
		return nil, err
	}
	return &timesheet.Validator{Schedule: sched, Areas: areas, Now: h.Now()}, nil
}

// toEntry converts the request body into a candidate entry.
func (req EntryRequest) toEntry(employeeID timesheet.EmployeeID) (timesheet.TimeEntry, error) {
	e := timesheet.TimeEntry{
		EmployeeID:   employeeID,
		ClientKey:    req.ClientKey,
		AreaName:     req.AreaName,
		Description:  req.Description,
		ActivityKind: timesheet.ActivityKind(req.ActivityKind),
		Location:     req.Location,
		Signature:    req.Signature,
	}

	if strings.TrimSpace(req.WorkDate) == "" {
		return e, &timesheet.ValidationFailure{Reason: timesheet.ReasonMissingField, Field: "work_date"}
	}
	date, err := timesheet.ParseDate(req.WorkDate)
	if err != nil {
		return e, err
	}
	e.WorkDate = date

	switch e.ActivityKind {
	case "", timesheet.ActivityRemote, timesheet.ActivityOnSite:
	default:
		return e, fmt.Errorf("%w: unknown activity_kind %q", errInvalidInput, req.ActivityKind)
	}

	hasRange := req.StartTime != "" || req.EndTime != ""
	switch {
	case hasRange:
		if req.StartTime == "" || req.EndTime == "" {
			field := "start_time"
			if req.EndTime == "" {
				field = "end_time"
			}
			return e, &timesheet.ValidationFailure{Reason: timesheet.ReasonMissingField, Field: field}
		}
		start, err := timesheet.ParseClock(req.StartTime)
		if err != nil {
			return e, err
		}
		end, err := timesheet.ParseClock(req.EndTime)
		if err != nil {
			return e, err
		}
		e.Start, e.End = &start, &end
	case req.Hours != nil:
		hours, err := decimal.NewFromString(*req.Hours)
		if err != nil {
			return e, fmt.Errorf("%w: hours %q is not a number", errInvalidInput, *req.Hours)
		}
		e.Hours = hours
	default:
		return e, &timesheet.ValidationFailure{Reason: timesheet.ReasonMissingField, Field: "start_time"}
	}
	return e, nil
}

// =============================================================================
// SUMMARY HANDLERS
// =============================================================================

// GetSummary groups an employee's entries (?group=day|week|month|client).
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}

	groupParam := r.URL.Query().Get("group")
	if groupParam == "" {
		groupParam = string(timesheet.GroupByWeek)
	}
	by, valid := timesheet.ParseGroupBy(groupParam)
	if !valid {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown group %q", groupParam), nil)
		return
	}
	from, to, ok := periodParams(w, r)
	if !ok {
		return
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}
	if !from.IsZero() {
		entries = timesheet.InPeriod(entries, timesheet.Period{Start: from, End: to})
	}

	summaries := timesheet.Summarize(entries, by, sched)
	dtos := make([]SummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group":   by,
		"groups":  dtos,
		"overall": toTotalsDTO(timesheet.TotalsOf(entries, sched)),
	})
}

// GetWeek returns the Monday to Sunday report for the week containing {date}.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}
	day, err := timesheet.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toWeeklyReportDTO(timesheet.WeekReport(entries, day, sched), sched))
}

// GetMonth returns the calendar-month report for the month containing {date}.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}
	day, err := timesheet.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, toMonthlyReportDTO(timesheet.MonthReport(entries, day, sched)))
}

// =============================================================================
// APPROVAL HANDLERS
// =============================================================================

// ListCoordinatorEntries returns entries for the clients a coordinator
// supervises. Optional filters: ?status=pending&date=YYYY-MM-DD&scope=week.
func (h *Handler) ListCoordinatorEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coordinatorID, ok := employeeParam(w, r, "id")
	if !ok {
		return
	}

	q := r.URL.Query()
	kind := timesheet.ScopeKind(q.Get("scope"))
	if kind == "" {
		kind = timesheet.ScopeDay
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scope %q", kind), nil)
		return
	}
	var status timesheet.Status
	if s := q.Get("status"); s != "" {
		parsed, err := timesheet.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status", err)
			return
		}
		status = parsed
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByCoordinator(ctx, coordinatorID)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	if d := q.Get("date"); d != "" {
		day, err := timesheet.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		scope := timesheet.Scope{Kind: kind, Date: day}
		entries = timesheet.InPeriod(entries, scope.Period())
	}
	if status != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Status == status {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(entries, sched))
}

// ApproveEntry moves a pending entry to approved.
func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	h.transitionEntry(w, r, timesheet.StatusApproved)
}

// RejectEntry moves a pending entry to rejected.
func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	h.transitionEntry(w, r, timesheet.StatusRejected)
}

// ApproveNormalEntry approves the normal hours of a pending entry and
// rejects its overtime.
func (h *Handler) ApproveNormalEntry(w http.ResponseWriter, r *http.Request) {
	h.transitionEntry(w, r, timesheet.StatusApprovedNormalOnly)
}

func (h *Handler) transitionEntry(w http.ResponseWriter, r *http.Request, to timesheet.Status) {
	ctx := r.Context()
	id := timesheet.EntryID(chi.URLParam(r, "id"))

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID <= 0 {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}
	approver := timesheet.EmployeeID(req.ApproverID)

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	entry, err := h.Store.GetEntry(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to get entry", err)
		return
	}
	supervises, err := h.Store.SupervisesClient(ctx, approver, entry.ClientKey)
	if err != nil {
		h.writeDomainError(w, "Failed to check coordinator", err)
		return
	}
	if !supervises {
		writeError(w, http.StatusForbidden, "Approver does not supervise this client", nil)
		return
	}

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	decided, err := timesheet.Transition(*entry, to, approver, sched, h.Now())
	if err != nil {
		h.writeDomainError(w, "Status change not allowed", err)
		return
	}

	updated, err := h.persistDecision(ctx, decided)
	if err != nil {
		h.writeDomainError(w, "Failed to save decision", err)
		return
	}

	h.Logger.Info("entry decided", "entry", id, "status", to, "approver", approver)
	writeJSON(w, http.StatusOK, toEntryDTO(updated, sched))
}

// BulkApprove applies one decision to every pending entry in a day or week
// across the approver's clients. Each entry is saved on its own; failures
// are reported and do not undo the others.
func (h *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BulkApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID <= 0 {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}
	to, ok := bulkActions[req.Action]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action %q", req.Action), nil)
		return
	}
	kind := timesheet.ScopeKind(req.Scope)
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scope %q", req.Scope), nil)
		return
	}
	day, err := timesheet.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	scope := timesheet.Scope{Kind: kind, Date: day, ClientKey: req.ClientKey}
	if req.EmployeeID != nil {
		emp := timesheet.EmployeeID(*req.EmployeeID)
		scope.EmployeeID = &emp
	}
	approver := timesheet.EmployeeID(req.ApproverID)

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	sched, err := h.schedule(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	entries, err := h.Store.ListEntriesByCoordinator(ctx, approver)
	if err != nil {
		h.writeDomainError(w, "Failed to list entries", err)
		return
	}

	report := timesheet.ApplyBulk(entries, scope, to, approver, sched, h.Now())

	result := BulkResultDTO{
		Transitioned: []EntryDTO{},
		Failed:       []BulkFailureDTO{},
		Skipped:      len(report.Skipped),
	}
	for _, decided := range report.Transitioned {
		updated, err := h.persistDecision(ctx, decided)
		if err != nil {
			h.Logger.Error("bulk decision not saved", "entry", decided.ID, "error", err)
			result.Failed = append(result.Failed, BulkFailureDTO{EntryID: string(decided.ID), Error: err.Error()})
			continue
		}
		result.Transitioned = append(result.Transitioned, toEntryDTO(updated, sched))
	}
	for _, f := range report.Failed {
		result.Failed = append(result.Failed, BulkFailureDTO{EntryID: string(f.Entry.ID), Error: f.Err.Error()})
	}

	h.Logger.Info("bulk decision", "approver", approver, "action", req.Action, "scope", kind,
		"date", req.Date, "transitioned", len(result.Transitioned), "failed", len(result.Failed),
		"skipped", result.Skipped)
	writeJSON(w, http.StatusOK, result)
}

var errInvalidInput = errors.New("invalid input")

var bulkActions = map[string]timesheet.Status{
	"approve":        timesheet.StatusApproved,
	"reject":         timesheet.StatusRejected,
	"approve_normal": timesheet.StatusApprovedNormalOnly,
}

// persistDecision writes a decision only if the entry is still pending in
// the store.
func (h *Handler) persistDecision(ctx context.Context, decided timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	pending := timesheet.StatusPending
	return h.Store.UpdateEntry(ctx, decided.ID, timesheet.EntryPatch{
		Status:       &decided.Status,
		ApproverID:   decided.ApproverID,
		UpdatedAt:    decided.UpdatedAt,
		ExpectStatus: &pending,
	})
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSettings returns the stored settings and the schedule they resolve to.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.Store.Settings(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load settings", err)
		return
	}
	sched, err := timesheet.ScheduleFromSettings(settings, h.Logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored settings are malformed", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{Settings: settings, Schedule: toScheduleDTO(sched)})
}

// PutSettings validates the merged settings before saving any of them.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for k := range req {
		if !timesheet.IsSettingKey(k) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown setting %q", k), nil)
			return
		}
	}

	current, err := h.Store.Settings(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to load settings", err)
		return
	}
	merged := make(map[string]string, len(current)+len(req))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	sched, err := timesheet.ScheduleFromSettings(merged, h.Logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if err := h.Store.PutSettings(ctx, req); err != nil {
		h.writeDomainError(w, "Failed to save settings", err)
		return
	}

	h.Logger.Info("settings updated", "keys", len(req))
	writeJSON(w, http.StatusOK, SettingsDTO{Settings: merged, Schedule: toScheduleDTO(sched)})
}

// PreviewSplit shows how an interval splits under the current schedule.
func (h *Handler) PreviewSplit(w http.ResponseWriter, r *http.Request) {
	var req SplitPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := timesheet.ParseDate(req.WorkDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid work_date", err)
		return
	}
	start, err := timesheet.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time", err)
		return
	}
	end, err := timesheet.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time", err)
		return
	}

	sched, err := h.schedule(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	window, hasWindow := sched.NormalWindow(day.Weekday())
	writeJSON(w, http.StatusOK, toSplitDTO(timesheet.SplitOvertime(day, start, end, sched), window, hasWindow))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListClientAreas returns the areas registered under a client.
func (h *Handler) ListClientAreas(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	areas, err := h.Store.ClientAreas(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load areas", err)
		return
	}
	names := areas.AreasFor(key)
	if len(names) == 0 {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps timesheet errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	if vf, ok := timesheet.IsValidationFailure(err); ok {
		resp := ErrorResponse{
			Error:   vf.Error(),
			Details: message,
			Reason:  string(vf.Reason),
			Field:   vf.Field,
		}
		if vf.Reason == timesheet.ReasonDailyLimit || vf.Reason == timesheet.ReasonWeeklyLimit {
			resp.LimitHours = vf.Limit.String()
			resp.RemainingHours = vf.Remaining.String()
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	switch {
	case timesheet.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case timesheet.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case timesheet.IsClientError(err), errors.Is(err, errInvalidInput):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusRequestTimeout, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func employeeParam(w http.ResponseWriter, r *http.Request, name string) (timesheet.EmployeeID, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid employee id %q", raw), nil)
		return 0, false
	}
	return timesheet.EmployeeID(id), true
}

// periodParams reads optional ?from=&to= dates. Zero times mean no filter.
func periodParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	fromRaw, toRaw := q.Get("from"), q.Get("to")
	if fromRaw == "" && toRaw == "" {
		return time.Time{}, time.Time{}, true
	}
	if fromRaw == "" || toRaw == "" {
		writeError(w, http.StatusBadRequest, "Both from and to are required", nil)
		return time.Time{}, time.Time{}, false
	}
	from, err := timesheet.ParseDate(fromRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := timesheet.ParseDate(toRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
