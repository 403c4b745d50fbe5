/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	timesheet data. Every entry goes through the same validator the API
	uses, so a scenario can never hold data the engine would reject.

AVAILABLE SCENARIOS:

	standard-week:    Two clients, a worker with a mixed week of decisions
	overtime-review:  Pending entries with overtime awaiting a coordinator
	weekly-limit:     A worker one hour short of the weekly ceiling
	custom-schedule:  Settings override windows, limit and closed Sunday

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Register clients, areas and coordinator assignments
 3. Optionally write schedule settings
 4. Submit entries for last week through the validator
 5. Apply coordinator decisions through the state machine

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overtime-review"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: shared validator and decision helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Demo people. Coordinators are employees too.
const (
	demoWorker      timesheet.EmployeeID = 7
	demoSecondHand  timesheet.EmployeeID = 8
	demoCoordinator timesheet.EmployeeID = 100
	demoPlantLead   timesheet.EmployeeID = 101
)

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-week",
		Name:        "Standard Week",
		Description: "Two clients, one worker, a week with approved, rejected and pending hours",
	},
	{
		ID:          "overtime-review",
		Name:        "Overtime Review",
		Description: "Pending entries past the normal window, ready for approve-normal",
	},
	{
		ID:          "weekly-limit",
		Name:        "Weekly Limit",
		Description: "Worker has logged 43h of the 44h weekly ceiling",
	},
	{
		ID:          "custom-schedule",
		Name:        "Custom Schedule",
		Description: "08:00-17:00 weekdays, 40h week, Sunday closed",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context, monday time.Time) error{
	"standard-week":   (*Handler).loadStandardWeekScenario,
	"overtime-review": (*Handler).loadOvertimeReviewScenario,
	"weekly-limit":    (*Handler).loadWeeklyLimitScenario,
	"custom-schedule": (*Handler).loadCustomScheduleScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.RLock()
	current := h.currentScenario
	h.scenarioMu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	// Always last week, so no entry is in the future.
	monday := timesheet.WeekPeriod(h.Now()).Start.AddDate(0, 0, -7)
	if err := load(h, ctx, monday); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "week", timesheet.ISOWeekLabel(monday))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadStandardWeekScenario(ctx context.Context, monday time.Time) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	seeds := []seedEntry{
		{day: 0, client: "acme", area: "warehouse", start: "07:30", end: "16:00", desc: "inbound pallets", decide: timesheet.StatusApproved},
		{day: 1, client: "acme", area: "office", start: "08:00", end: "17:00", desc: "inventory reconciliation", decide: timesheet.StatusApproved},
		{day: 2, client: "acme", area: "warehouse", start: "07:30", end: "15:00", desc: "cycle count", decide: timesheet.StatusRejected},
		{day: 3, client: "globex", area: "plant", start: "08:00", end: "12:00", desc: "line changeover"},
		{day: 4, client: "acme", area: "warehouse", hours: "4.5"},
	}
	if err := h.seedEntries(ctx, demoWorker, monday, seeds); err != nil {
		return err
	}

	// Coordinator logging their own hours is approved on submission.
	return h.seedEntries(ctx, demoCoordinator, monday, []seedEntry{
		{day: 1, client: "acme", area: "office", start: "09:00", end: "13:00", desc: "weekly planning"},
	})
}

func (h *Handler) loadOvertimeReviewScenario(ctx context.Context, monday time.Time) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	if err := h.seedEntries(ctx, demoWorker, monday, []seedEntry{
		{day: 0, client: "acme", area: "warehouse", start: "06:30", end: "15:30", desc: "truck arrived early"},
		{day: 4, client: "acme", area: "warehouse", start: "08:00", end: "17:00", desc: "month-end close"},
		{day: 5, client: "acme", area: "warehouse", start: "08:00", end: "14:00", desc: "saturday restock"},
		{day: 6, client: "acme", area: "warehouse", start: "09:00", end: "12:00", desc: "emergency delivery"},
	}); err != nil {
		return err
	}
	return h.seedEntries(ctx, demoSecondHand, monday, []seedEntry{
		{day: 0, client: "acme", area: "office", start: "08:00", end: "16:00", desc: "data entry"},
		{day: 2, client: "globex", area: "plant", start: "06:00", end: "14:00", desc: "early shift", onSite: true},
	})
}

func (h *Handler) loadWeeklyLimitScenario(ctx context.Context, monday time.Time) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}

	// 4 x 9h + 7h = 43h, one hour left this week
	var seeds []seedEntry
	for day := 0; day < 4; day++ {
		seeds = append(seeds, seedEntry{day: day, client: "acme", area: "warehouse", start: "07:30", end: "16:30", desc: "picking", decide: timesheet.StatusApproved})
	}
	seeds = append(seeds, seedEntry{day: 4, client: "acme", area: "warehouse", start: "07:30", end: "14:30", desc: "picking"})
	return h.seedEntries(ctx, demoWorker, monday, seeds)
}

func (h *Handler) loadCustomScheduleScenario(ctx context.Context, monday time.Time) error {
	if err := h.seedCatalog(ctx); err != nil {
		return err
	}
	if err := h.Store.PutSettings(ctx, map[string]string{
		timesheet.KeyNormalStart:          "08:00",
		timesheet.KeyNormalEnd:            "17:00",
		timesheet.KeyNormalEndFriday:      "16:00",
		timesheet.KeyWeeklyLimit:          "40",
		timesheet.KeyDailyLimit:           "10",
		timesheet.MaxHoursKey(time.Sunday): "0",
	}); err != nil {
		return err
	}

	return h.seedEntries(ctx, demoWorker, monday, []seedEntry{
		{day: 0, client: "acme", area: "warehouse", start: "07:00", end: "17:00", desc: "receiving"},
		{day: 1, client: "acme", area: "warehouse", start: "08:00", end: "18:00", desc: "receiving", decide: timesheet.StatusApprovedNormalOnly},
		{day: 4, client: "globex", area: "plant", start: "08:00", end: "16:00", desc: "audit", decide: timesheet.StatusApproved},
	})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

type seedEntry struct {
	day    int // offset from Monday
	client string
	area   string
	start  string
	end    string
	hours  string // legacy entries only
	desc   string
	onSite bool
	decide timesheet.Status // coordinator decision after submission, if any
}

func (h *Handler) seedCatalog(ctx context.Context) error {
	areas := map[string][]string{
		"acme":   {"warehouse", "office"},
		"globex": {"plant"},
	}
	for client, names := range areas {
		for _, name := range names {
			if err := h.Store.SaveClientArea(ctx, client, name); err != nil {
				return err
			}
		}
	}
	if err := h.Store.AssignCoordinator(ctx, demoCoordinator, "acme"); err != nil {
		return err
	}
	return h.Store.AssignCoordinator(ctx, demoPlantLead, "globex")
}

// seedEntries submits entries through the validator and applies any
// decision through the state machine, like the HTTP handlers do.
func (h *Handler) seedEntries(ctx context.Context, employeeID timesheet.EmployeeID, monday time.Time, seeds []seedEntry) error {
	v, err := h.validator(ctx)
	if err != nil {
		return err
	}

	for _, s := range seeds {
		req := EntryRequest{
			ClientKey:   s.client,
			AreaName:    s.area,
			WorkDate:    monday.AddDate(0, 0, s.day).Format(time.DateOnly),
			StartTime:   s.start,
			EndTime:     s.end,
			Description: s.desc,
		}
		if s.hours != "" {
			hours := s.hours
			req.Hours = &hours
		}
		if s.onSite {
			req.ActivityKind = string(timesheet.ActivityOnSite)
			req.Location = "25.6866,-100.3161"
			req.Signature = "demo-signature"
		}

		candidate, err := req.toEntry(employeeID)
		if err != nil {
			return err
		}
		existing, err := h.Store.ListEntriesByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		autoApprove, err := h.Store.SupervisesClient(ctx, employeeID, s.client)
		if err != nil {
			return err
		}
		accepted, err := v.Validate(candidate, existing, timesheet.SubmitOptions{AutoApprove: autoApprove, SubmittedBy: employeeID})
		if err != nil {
			return fmt.Errorf("seed %s day %d: %w", s.client, s.day, err)
		}
		created, err := h.Store.CreateEntry(ctx, accepted)
		if err != nil {
			return err
		}

		if s.decide == "" {
			continue
		}
		approver, err := h.coordinatorFor(ctx, s.client)
		if err != nil {
			return err
		}
		decided, err := timesheet.Transition(created, s.decide, approver, v.Schedule, h.Now())
		if err != nil {
			return fmt.Errorf("seed decision %s: %w", created.ID, err)
		}
		if _, err := h.persistDecision(ctx, decided); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) coordinatorFor(ctx context.Context, client string) (timesheet.EmployeeID, error) {
	for _, id := range []timesheet.EmployeeID{demoCoordinator, demoPlantLead} {
		ok, err := h.Store.SupervisesClient(ctx, id, client)
		if err != nil {
			return 0, err
		}
		if ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no coordinator for client %q", client)
}
