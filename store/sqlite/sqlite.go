/*
Package sqlite provides a SQLite-backed implementation of timesheet.Store.

PURPOSE:
  Persists time entries, the schedule settings map, and the read-only
  client/area and coordinator catalog. In production the same shapes map
  onto PostgreSQL with only dialect changes.

INTERFACES IMPLEMENTED:
  timesheet.EntryStore:    time entry CRUD (no delete)
  timesheet.SettingsStore: key/value schedule settings
  timesheet.CatalogStore:  client areas and coordinator assignments

KEY TABLES:
  time_entries:        one row per entry, hours stored as decimal TEXT
  settings:            key/value pairs read by timesheet.ScheduleFromSettings
  client_areas:        (client_key, area_name) pairs
  coordinator_clients: which coordinator supervises which client

STORAGE FORMATS:
  work_date            YYYY-MM-DD
  start_time/end_time  HH:MM, NULL for legacy hour-count entries
  hours                decimal string ("8.5"), never REAL
  created_at/updated_at RFC3339Nano, UTC

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. UpdateEntry reads, patches and
  writes inside one SQL transaction under the write lock.

USAGE:
  store, err := sqlite.New("./data/timesheet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/timesheet"
)

// Store implements timesheet.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ timesheet.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id INTEGER NOT NULL,
		client_key TEXT NOT NULL,
		area_name TEXT NOT NULL,
		work_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		hours TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		approver_id INTEGER,
		description TEXT NOT NULL DEFAULT '',
		activity_kind TEXT NOT NULL DEFAULT 'remote',
		location TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Ceiling checks and employee dashboards (hot path)
	CREATE INDEX IF NOT EXISTS idx_time_entries_employee_date
		ON time_entries(employee_id, work_date);

	-- Coordinator views filter by client
	CREATE INDEX IF NOT EXISTS idx_time_entries_client_date
		ON time_entries(client_key, work_date);

	CREATE INDEX IF NOT EXISTS idx_time_entries_status
		ON time_entries(status);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS client_areas (
		client_key TEXT NOT NULL,
		area_name TEXT NOT NULL,
		PRIMARY KEY (client_key, area_name)
	);

	CREATE TABLE IF NOT EXISTS coordinator_clients (
		coordinator_id INTEGER NOT NULL,
		client_key TEXT NOT NULL,
		PRIMARY KEY (coordinator_id, client_key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE (timesheet.EntryStore interface)
// =============================================================================

const entryColumns = `
	id, employee_id, client_key, area_name, work_date, start_time, end_time,
	hours, status, approver_id, description, activity_kind, location,
	signature, created_at, updated_at`

// ListEntriesByEmployee returns the employee's entries ordered by work date.
func (s *Store) ListEntriesByEmployee(ctx context.Context, employeeID timesheet.EmployeeID) ([]timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + entryColumns + `
		FROM time_entries
		WHERE employee_id = ?
		ORDER BY work_date, start_time, id`

	return s.queryEntries(ctx, query, int64(employeeID))
}

// ListEntriesByCoordinator returns entries for every client the coordinator
// supervises, ordered by work date.
func (s *Store) ListEntriesByCoordinator(ctx context.Context, coordinatorID timesheet.EmployeeID) ([]timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + prefixColumns("e.", entryColumns) + `
		FROM time_entries e
		JOIN coordinator_clients cc ON cc.client_key = e.client_key
		WHERE cc.coordinator_id = ?
		ORDER BY e.work_date, e.employee_id, e.start_time, e.id`

	return s.queryEntries(ctx, query, int64(coordinatorID))
}

// GetEntry retrieves an entry by ID.
func (s *Store) GetEntry(ctx context.Context, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getEntry(ctx, s.db, id)
}

// CreateEntry inserts a new entry. A missing ID is filled with a UUID and
// missing timestamps with the current time.
func (s *Store) CreateEntry(ctx context.Context, e timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = timesheet.EntryID(uuid.NewString())
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

	query := `INSERT INTO time_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, entryArgs(e)...); err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("failed to create entry: %w", err)
	}
	return e, nil
}

// UpdateEntry applies patch to the stored entry and returns the result.
func (s *Store) UpdateEntry(ctx context.Context, id timesheet.EntryID, patch timesheet.EntryPatch) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	current, err := getEntry(ctx, sqlTx, id)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	if err := patch.CheckExpected(*current); err != nil {
		return timesheet.TimeEntry{}, err
	}

	updated := patch.Apply(*current)
	if patch.UpdatedAt.IsZero() {
		updated.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE time_entries SET
			client_key = ?, area_name = ?, work_date = ?, start_time = ?, end_time = ?,
			hours = ?, status = ?, approver_id = ?, description = ?, activity_kind = ?,
			location = ?, signature = ?, updated_at = ?
		WHERE id = ?`

	var start, end sql.NullString
	if updated.HasRange() {
		start = nullString(updated.Start.String())
		end = nullString(updated.End.String())
	}

	_, err = sqlTx.ExecContext(ctx, query,
		updated.ClientKey, updated.AreaName, updated.WorkDate.Format(time.DateOnly), start, end,
		updated.Hours.String(), string(updated.Status), nullEmployee(updated.ApproverID),
		updated.Description, string(updated.ActivityKind), updated.Location, updated.Signature,
		updated.UpdatedAt.UTC().Format(time.RFC3339Nano), string(id),
	)
	if err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("failed to update entry: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("failed to commit entry update: %w", err)
	}
	return updated, nil
}

// ListAllEntries returns every entry (for the demo/admin view).
func (s *Store) ListAllEntries(ctx context.Context) ([]timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM time_entries ORDER BY work_date, employee_id, id`)
}

// =============================================================================
// SETTINGS STORE (timesheet.SettingsStore interface)
// =============================================================================

// Settings returns the whole settings map.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// PutSettings upserts the given keys in one transaction. Blank values delete
// the key.
func (s *Store) PutSettings(ctx context.Context, settings map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for k, v := range settings {
		if strings.TrimSpace(v) == "" {
			if _, err := sqlTx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, k); err != nil {
				return fmt.Errorf("failed to delete setting %q: %w", k, err)
			}
			continue
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
		if err != nil {
			return fmt.Errorf("failed to save setting %q: %w", k, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// CATALOG STORE (timesheet.CatalogStore interface)
// =============================================================================

// ClientAreas returns the client to areas map, areas sorted by name.
func (s *Store) ClientAreas(ctx context.Context) (timesheet.ClientAreas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT client_key, area_name FROM client_areas
		ORDER BY client_key, area_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query client areas: %w", err)
	}
	defer rows.Close()

	areas := make(timesheet.ClientAreas)
	for rows.Next() {
		var client, area string
		if err := rows.Scan(&client, &area); err != nil {
			return nil, fmt.Errorf("failed to scan client area: %w", err)
		}
		areas[client] = append(areas[client], area)
	}
	return areas, rows.Err()
}

// SupervisesClient reports whether the coordinator is assigned to the client.
func (s *Store) SupervisesClient(ctx context.Context, coordinatorID timesheet.EmployeeID, clientKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM coordinator_clients
		WHERE coordinator_id = ? AND client_key = ?`, int64(coordinatorID), clientKey).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query coordinator clients: %w", err)
	}
	return n > 0, nil
}

// SaveClientArea registers an area under a client. Saving an existing pair
// is a no-op.
func (s *Store) SaveClientArea(ctx context.Context, clientKey, areaName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_areas (client_key, area_name) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, clientKey, areaName)
	return err
}

// AssignCoordinator links a coordinator to a client they supervise.
func (s *Store) AssignCoordinator(ctx context.Context, coordinatorID timesheet.EmployeeID, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coordinator_clients (coordinator_id, client_key) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, int64(coordinatorID), clientKey)
	return err
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for scenario loading).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"time_entries", "settings", "client_areas", "coordinator_clients"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getEntry(ctx context.Context, q querier, id timesheet.EntryID) (*timesheet.TimeEntry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, string(id))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", timesheet.ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]timesheet.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (timesheet.TimeEntry, error) {
	var (
		e            timesheet.TimeEntry
		id           string
		employeeID   int64
		workDate     string
		startTime    sql.NullString
		endTime      sql.NullString
		hoursText    string
		status       string
		approverID   sql.NullInt64
		activityKind string
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&id, &employeeID, &e.ClientKey, &e.AreaName, &workDate, &startTime, &endTime,
		&hoursText, &status, &approverID, &e.Description, &activityKind, &e.Location,
		&e.Signature, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.ID = timesheet.EntryID(id)
	e.EmployeeID = timesheet.EmployeeID(employeeID)
	e.ActivityKind = timesheet.ActivityKind(activityKind)

	if e.WorkDate, err = timesheet.ParseDate(workDate); err != nil {
		return e, fmt.Errorf("entry %s: %w", id, err)
	}
	if e.Hours, err = decimal.NewFromString(hoursText); err != nil {
		return e, fmt.Errorf("entry %s: bad hours %q: %w", id, hoursText, err)
	}
	if e.Status, err = timesheet.ParseStatus(status); err != nil {
		return e, fmt.Errorf("entry %s: %w", id, err)
	}
	if startTime.Valid && endTime.Valid {
		start, err := timesheet.ParseClock(startTime.String)
		if err != nil {
			return e, fmt.Errorf("entry %s: %w", id, err)
		}
		end, err := timesheet.ParseClock(endTime.String)
		if err != nil {
			return e, fmt.Errorf("entry %s: %w", id, err)
		}
		e.Start, e.End = &start, &end
	}
	if approverID.Valid {
		a := timesheet.EmployeeID(approverID.Int64)
		e.ApproverID = &a
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return e, nil
}

// entryArgs returns the column values in entryColumns order.
func entryArgs(e timesheet.TimeEntry) []any {
	var start, end sql.NullString
	if e.HasRange() {
		start = nullString(e.Start.String())
		end = nullString(e.End.String())
	}
	kind := e.ActivityKind
	if kind == "" {
		kind = timesheet.ActivityRemote
	}

	return []any{
		string(e.ID),
		int64(e.EmployeeID),
		e.ClientKey,
		e.AreaName,
		e.WorkDate.Format(time.DateOnly),
		start,
		end,
		e.Hours.String(),
		string(e.Status),
		nullEmployee(e.ApproverID),
		e.Description,
		string(kind),
		e.Location,
		e.Signature,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullEmployee(id *timesheet.EmployeeID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
