/*
store.go - Collaborator contracts for persistence

PURPOSE:
  The engine never calls these itself. Callers (the api package) fetch
  entries and settings through them, hand the slices to the engine, and
  persist the decisions it returns.

KEY INTERFACES:
  EntryStore:    create/read/update time entries
  SettingsStore: small key/value map holding the schedule settings
  Store:         both, plus the client/area catalog

NO DELETE:
  Entries are never physically deleted by the engine. Rejection is a
  status, and an owner edit returns the entry to pending.

IMPLEMENTATIONS:
  - store/sqlite: SQLite
  - store/memory: in-memory, for tests and demos
*/
package timesheet

import "context"

// EntryStore persists time entries.
type EntryStore interface {
	// ListEntriesByEmployee returns the employee's entries ordered by work date.
	ListEntriesByEmployee(ctx context.Context, employeeID EmployeeID) ([]TimeEntry, error)

	// ListEntriesByCoordinator returns entries for every client the
	// coordinator supervises.
	ListEntriesByCoordinator(ctx context.Context, coordinatorID EmployeeID) ([]TimeEntry, error)

	// GetEntry returns ErrEntryNotFound when no entry has the id.
	GetEntry(ctx context.Context, id EntryID) (*TimeEntry, error)

	// CreateEntry assigns an ID and CreatedAt and returns the stored entry.
	CreateEntry(ctx context.Context, e TimeEntry) (TimeEntry, error)

	// UpdateEntry applies patch to the entry and returns the result.
	UpdateEntry(ctx context.Context, id EntryID, patch EntryPatch) (TimeEntry, error)
}

// SettingsStore holds the schedule settings map.
type SettingsStore interface {
	Settings(ctx context.Context) (map[string]string, error)

	// PutSettings upserts the given keys. Keys with empty values are removed
	// so they fall back to defaults.
	PutSettings(ctx context.Context, settings map[string]string) error
}

// CatalogStore exposes the client/area and coordinator assignments the
// validator and coordinator views need. Managing them is out of scope.
type CatalogStore interface {
	ClientAreas(ctx context.Context) (ClientAreas, error)
	SupervisesClient(ctx context.Context, coordinatorID EmployeeID, clientKey string) (bool, error)
}

// Store is everything the API layer needs.
type Store interface {
	EntryStore
	SettingsStore
	CatalogStore
}
