// Package memory provides an in-memory timesheet.Store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	entries      map[timesheet.EntryID]timesheet.TimeEntry
	settings     map[string]string
	areas        map[string]map[string]bool
	coordinators map[timesheet.EmployeeID]map[string]bool
}

var _ timesheet.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		entries:      make(map[timesheet.EntryID]timesheet.TimeEntry),
		settings:     make(map[string]string),
		areas:        make(map[string]map[string]bool),
		coordinators: make(map[timesheet.EmployeeID]map[string]bool),
	}
}

// ListEntriesByEmployee returns copies ordered by date, start time, id.
func (m *Store) ListEntriesByEmployee(_ context.Context, employeeID timesheet.EmployeeID) ([]timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(e timesheet.TimeEntry) bool { return e.EmployeeID == employeeID }), nil
}

func (m *Store) ListEntriesByCoordinator(_ context.Context, coordinatorID timesheet.EmployeeID) ([]timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := m.coordinators[coordinatorID]
	return m.collect(func(e timesheet.TimeEntry) bool { return clients[e.ClientKey] }), nil
}

// ListAllEntries returns every entry.
func (m *Store) ListAllEntries(_ context.Context) ([]timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(timesheet.TimeEntry) bool { return true }), nil
}

func (m *Store) GetEntry(_ context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", timesheet.ErrEntryNotFound, id)
	}
	e = clone(e)
	return &e, nil
}

func (m *Store) CreateEntry(_ context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = timesheet.EntryID(uuid.NewString())
	}
	if _, exists := m.entries[e.ID]; exists {
		return timesheet.TimeEntry{}, fmt.Errorf("entry %s already exists", e.ID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.Status == "" {
		e.Status = timesheet.StatusPending
	}
	if e.ActivityKind == "" {
		e.ActivityKind = timesheet.ActivityRemote
	}

	m.entries[e.ID] = clone(e)
	return e, nil
}

func (m *Store) UpdateEntry(_ context.Context, id timesheet.EntryID, patch timesheet.EntryPatch) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[id]
	if !ok {
		return timesheet.TimeEntry{}, fmt.Errorf("%w: %s", timesheet.ErrEntryNotFound, id)
	}
	if err := patch.CheckExpected(current); err != nil {
		return timesheet.TimeEntry{}, err
	}

	updated := patch.Apply(clone(current))
	if patch.UpdatedAt.IsZero() {
		updated.UpdatedAt = time.Now().UTC()
	}
	m.entries[id] = clone(updated)
	return updated, nil
}

// =============================================================================
// SETTINGS & CATALOG
// =============================================================================

func (m *Store) Settings(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

// PutSettings upserts keys; blank values delete them.
func (m *Store) PutSettings(_ context.Context, settings map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range settings {
		if strings.TrimSpace(v) == "" {
			delete(m.settings, k)
			continue
		}
		m.settings[k] = v
	}
	return nil
}

func (m *Store) ClientAreas(_ context.Context) (timesheet.ClientAreas, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(timesheet.ClientAreas, len(m.areas))
	for client, set := range m.areas {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		out[client] = names
	}
	return out, nil
}

func (m *Store) SupervisesClient(_ context.Context, coordinatorID timesheet.EmployeeID, clientKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coordinators[coordinatorID][clientKey], nil
}

func (m *Store) SaveClientArea(_ context.Context, clientKey, areaName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.areas[clientKey] == nil {
		m.areas[clientKey] = make(map[string]bool)
	}
	m.areas[clientKey][areaName] = true
	return nil
}

func (m *Store) AssignCoordinator(_ context.Context, coordinatorID timesheet.EmployeeID, clientKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.coordinators[coordinatorID] == nil {
		m.coordinators[coordinatorID] = make(map[string]bool)
	}
	m.coordinators[coordinatorID][clientKey] = true
	return nil
}

// Reset clears all data.
func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[timesheet.EntryID]timesheet.TimeEntry)
	m.settings = make(map[string]string)
	m.areas = make(map[string]map[string]bool)
	m.coordinators = make(map[timesheet.EmployeeID]map[string]bool)
	return nil
}

// collect must be called with the lock held.
func (m *Store) collect(keep func(timesheet.TimeEntry) bool) []timesheet.TimeEntry {
	var out []timesheet.TimeEntry
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.Before(b.WorkDate)
		}
		if sa, sb := startOf(a), startOf(b); sa != sb {
			return sa < sb
		}
		return a.ID < b.ID
	})
	return out
}

// startOf sorts legacy entries (no range) ahead of ranged ones.
func startOf(e timesheet.TimeEntry) timesheet.Clock {
	if e.Start == nil {
		return -1
	}
	return *e.Start
}

// clone detaches the pointer fields so callers cannot mutate stored state.
func clone(e timesheet.TimeEntry) timesheet.TimeEntry {
	if e.Start != nil {
		s := *e.Start
		e.Start = &s
	}
	if e.End != nil {
		en := *e.End
		e.End = &en
	}
	if e.ApproverID != nil {
		a := *e.ApproverID
		e.ApproverID = &a
	}
	return e
}
