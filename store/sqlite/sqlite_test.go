package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var workDay = timesheet.NewDate(2026, time.March, 10)

func rangeEntry(employee timesheet.EmployeeID, client, start, end string) timesheet.TimeEntry {
	s, e := timesheet.MustParseClock(start), timesheet.MustParseClock(end)
	return timesheet.TimeEntry{
		EmployeeID:   employee,
		ClientKey:    client,
		AreaName:     "warehouse",
		WorkDate:     workDay,
		Start:        &s,
		End:          &e,
		Hours:        timesheet.HoursBetween(s, e),
		Status:       timesheet.StatusPending,
		Description:  "stocktake",
		ActivityKind: timesheet.ActivityOnSite,
		Location:     "19.43,-99.13",
		Signature:    "sig://abc",
	}
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestCreateAndGetEntry_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateEntry(ctx, rangeEntry(7, "acme", "07:30", "16:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "id is assigned")
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetEntry(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, timesheet.EmployeeID(7), got.EmployeeID)
	assert.Equal(t, workDay, got.WorkDate)
	require.True(t, got.HasRange())
	assert.Equal(t, "07:30", got.Start.String())
	assert.Equal(t, "16:00", got.End.String())
	assert.True(t, decimal.RequireFromString("8.5").Equal(got.Hours))
	assert.Equal(t, timesheet.StatusPending, got.Status)
	assert.Nil(t, got.ApproverID)
	assert.Equal(t, timesheet.ActivityOnSite, got.ActivityKind)
	assert.Equal(t, "sig://abc", got.Signature)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateEntry_LegacyHoursHaveNoRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := rangeEntry(7, "acme", "08:00", "12:00")
	e.Start, e.End = nil, nil
	e.Hours = decimal.RequireFromString("3.5")

	created, err := store.CreateEntry(ctx, e)
	require.NoError(t, err)

	got, err := store.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.HasRange())
	assert.True(t, decimal.RequireFromString("3.5").Equal(got.Hours))
}

func TestGetEntry_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
	assert.True(t, timesheet.IsNotFound(err))
}

func TestUpdateEntry_AppliesPatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateEntry(ctx, rangeEntry(7, "acme", "08:00", "12:00"))
	require.NoError(t, err)

	// GIVEN: an approval decision
	approved := timesheet.StatusApproved
	approver := timesheet.EmployeeID(1)
	at := time.Date(2026, time.March, 11, 9, 0, 0, 0, time.UTC)

	// WHEN: the patch is persisted
	updated, err := store.UpdateEntry(ctx, created.ID, timesheet.EntryPatch{
		Status:     &approved,
		ApproverID: &approver,
		UpdatedAt:  at,
	})
	require.NoError(t, err)

	// THEN: only the patched fields change
	got, err := store.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Status, got.Status)
	require.NotNil(t, got.ApproverID)
	assert.Equal(t, approver, *got.ApproverID)
	assert.True(t, at.Equal(got.UpdatedAt))
	assert.Equal(t, "stocktake", got.Description)
	assert.Equal(t, "08:00", got.Start.String())

	// Clearing the approver and the range
	updated, err = store.UpdateEntry(ctx, created.ID, timesheet.EntryPatch{ClearApprover: true, ClearRange: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ApproverID)
	assert.False(t, updated.HasRange())

	got, err = store.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ApproverID)
	assert.False(t, got.HasRange())
}

func TestUpdateEntry_RefusesChangedStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateEntry(ctx, rangeEntry(7, "acme", "08:00", "12:00"))
	require.NoError(t, err)

	// GIVEN: the entry was approved
	pending, approved, rejected := timesheet.StatusPending, timesheet.StatusApproved, timesheet.StatusRejected
	approver := timesheet.EmployeeID(1)
	_, err = store.UpdateEntry(ctx, created.ID, timesheet.EntryPatch{
		Status: &approved, ApproverID: &approver, ExpectStatus: &pending,
	})
	require.NoError(t, err)

	// WHEN: a rejection computed while it was pending arrives
	other := timesheet.EmployeeID(2)
	_, err = store.UpdateEntry(ctx, created.ID, timesheet.EntryPatch{
		Status: &rejected, ApproverID: &other, ExpectStatus: &pending,
	})

	// THEN: the transaction writes nothing
	var illegal *timesheet.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, timesheet.StatusApproved, illegal.From)
	assert.Equal(t, timesheet.StatusRejected, illegal.To)

	got, err := store.GetEntry(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, got.Status)
	require.NotNil(t, got.ApproverID)
	assert.Equal(t, approver, *got.ApproverID)
}

func TestUpdateEntry_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateEntry(context.Background(), "missing", timesheet.EntryPatch{})
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
}

func TestListEntriesByEmployee_OrderedByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	later := rangeEntry(7, "acme", "08:00", "12:00")
	later.WorkDate = workDay.AddDate(0, 0, 2)
	_, err := store.CreateEntry(ctx, later)
	require.NoError(t, err)
	_, err = store.CreateEntry(ctx, rangeEntry(7, "acme", "13:00", "15:00"))
	require.NoError(t, err)
	_, err = store.CreateEntry(ctx, rangeEntry(7, "acme", "08:00", "12:00"))
	require.NoError(t, err)
	_, err = store.CreateEntry(ctx, rangeEntry(9, "acme", "08:00", "12:00"))
	require.NoError(t, err)

	entries, err := store.ListEntriesByEmployee(ctx, 7)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "08:00", entries[0].Start.String())
	assert.Equal(t, "13:00", entries[1].Start.String())
	assert.Equal(t, later.WorkDate, entries[2].WorkDate)
}

func TestListEntriesByCoordinator_FiltersBySupervisedClients(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AssignCoordinator(ctx, 100, "acme"))
	_, err := store.CreateEntry(ctx, rangeEntry(7, "acme", "08:00", "12:00"))
	require.NoError(t, err)
	_, err = store.CreateEntry(ctx, rangeEntry(8, "acme", "08:00", "10:00"))
	require.NoError(t, err)
	_, err = store.CreateEntry(ctx, rangeEntry(7, "globex", "13:00", "15:00"))
	require.NoError(t, err)

	entries, err := store.ListEntriesByCoordinator(ctx, 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "acme", e.ClientKey)
	}

	ok, err := store.SupervisesClient(ctx, 100, "globex")
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// SETTINGS & CATALOG
// =============================================================================

func TestSettings_UpsertAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSettings(ctx, map[string]string{
		timesheet.KeyWeeklyLimit: "40",
		timesheet.KeyNormalStart: "08:00",
	}))
	require.NoError(t, store.PutSettings(ctx, map[string]string{
		timesheet.KeyWeeklyLimit: "42",
		timesheet.KeyNormalStart: "",
	}))

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{timesheet.KeyWeeklyLimit: "42"}, settings)
}

func TestClientAreas(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveClientArea(ctx, "acme", "warehouse"))
	require.NoError(t, store.SaveClientArea(ctx, "acme", "office"))
	require.NoError(t, store.SaveClientArea(ctx, "acme", "office"))
	require.NoError(t, store.SaveClientArea(ctx, "globex", "plant"))

	areas, err := store.ClientAreas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"office", "warehouse"}, areas.AreasFor("acme"))
	assert.Equal(t, []string{"plant"}, areas.AreasFor("globex"))
	assert.Empty(t, areas.AreasFor("initech"))
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateEntry(ctx, rangeEntry(7, "acme", "08:00", "12:00"))
	require.NoError(t, err)
	require.NoError(t, store.PutSettings(ctx, map[string]string{timesheet.KeyWeeklyLimit: "40"}))

	require.NoError(t, store.Reset(ctx))

	entries, err := store.ListAllEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings)
}
