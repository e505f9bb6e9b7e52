package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := Open(Config{Type: TypeSQLite, SQLitePath: MemoryPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedTarget(t *testing.T, store *GormStore, id, name, url string) {
	t.Helper()
	require.NoError(t, store.UpsertTarget(t.Context(), model.Target{
		ID:              id,
		Name:            name,
		Website:         "https://example.com/" + id,
		VersionCheckURL: url,
	}))
}

func TestTargets(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	seedTarget(t, store, "resolve", "DaVinci Resolve", "https://example.com/resolve/notes")
	seedTarget(t, store, "blender", "Blender", "https://example.com/blender/notes")
	seedTarget(t, store, "gimp", "GIMP", "")

	withURL, err := store.ListTargetsWithVersionURL(ctx)
	require.NoError(t, err)
	require.Len(t, withURL, 2)
	assert.Equal(t, "blender", withURL[0].ID)
	assert.Equal(t, "resolve", withURL[1].ID)

	all, err := store.ListTargets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	target, err := store.GetTarget(ctx, "resolve")
	require.NoError(t, err)
	assert.Equal(t, "DaVinci Resolve", target.Name)
	assert.False(t, target.HasCurrentVersion())

	_, err = store.GetTarget(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTargetNotFound))
	assert.True(t, errors.IsNotFound(err))
}

func TestUpsertTargetKeepsObservedVersion(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)

	seedTarget(t, store, "resolve", "DaVinci Resolve", "https://example.com/a")
	released := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateTargetCurrentVersion(ctx, "resolve", "19.1.3", &released, time.Now()))

	seedTarget(t, store, "resolve", "DaVinci Resolve Studio", "https://example.com/b")

	target, err := store.GetTarget(ctx, "resolve")
	require.NoError(t, err)
	assert.Equal(t, "DaVinci Resolve Studio", target.Name)
	assert.Equal(t, "https://example.com/b", target.VersionCheckURL)
	assert.Equal(t, "19.1.3", target.CurrentVersion)
	require.NotNil(t, target.CurrentVersionDate)
	assert.True(t, released.Equal(*target.CurrentVersionDate))
	assert.NotNil(t, target.LastCheckedAt)

	err = store.UpsertTarget(ctx, model.Target{ID: "", Name: "x"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = store.UpdateTargetCurrentVersion(ctx, "missing", "1.0", nil, time.Now())
	assert.True(t, errors.IsNotFound(err))
}

func TestInsertVersionRecordIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)
	seedTarget(t, store, "resolve", "DaVinci Resolve", "https://example.com/a")

	rec := &VersionRecord{SoftwareID: "resolve", Version: "19.1.3", Type: "patch", Notes: []string{"fix"}, ConfidenceScore: 90}
	inserted, err := store.InsertVersionRecord(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, rec.ID)

	inserted, err = store.InsertVersionRecord(ctx, &VersionRecord{SoftwareID: "resolve", Version: "19.1.3", Type: "patch"})
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := store.CountVersionRecords(ctx, "resolve")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	found, err := store.FindVersionRecord(ctx, "resolve", "19.1.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"fix"}, found.Notes)
	assert.Equal(t, 90, found.ConfidenceScore)

	_, err = store.FindVersionRecord(ctx, "resolve", "20.0")
	assert.True(t, errors.Is(err, ErrVersionRecordNotFound))

	_, err = store.InsertVersionRecord(ctx, &VersionRecord{SoftwareID: "resolve"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestUpdateVersionRecordRefreshesDetailsOnly(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newTestStore(t)
	seedTarget(t, store, "resolve", "DaVinci Resolve", "https://example.com/a")

	rec := &VersionRecord{SoftwareID: "resolve", Version: "19.1.3", Type: "patch", ConfidenceScore: 55, RequiresManualReview: true}
	_, err := store.InsertVersionRecord(ctx, rec)
	require.NoError(t, err)

	released := time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateVersionRecord(ctx, rec.ID, VersionRecordUpdate{
		ReleaseDate: &released,
		Notes:       []string{"Improved stability", "Fixed audio sync"},
		Type:        "minor",
		BuildNumber: "7",
	}))

	found, err := store.FindVersionRecord(ctx, "resolve", "19.1.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Improved stability", "Fixed audio sync"}, found.Notes)
	assert.Equal(t, "minor", found.Type)
	assert.Equal(t, "7", found.BuildNumber)
	require.NotNil(t, found.ReleaseDate)
	assert.True(t, released.Equal(*found.ReleaseDate))
	assert.Equal(t, 55, found.ConfidenceScore)
	assert.True(t, found.RequiresManualReview)

	err = store.UpdateVersionRecord(ctx, 9999, VersionRecordUpdate{})
	assert.True(t, errors.IsNotFound(err))
}

func TestOpenRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Type: "oracle"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn := mysqlDSN(MySQLConfig{Host: "db", Username: "watch", Password: "p@ss:word/", Database: "releasewatch"})
	assert.Contains(t, dsn, "watch:p@ss:word/@tcp(db:3306)/releasewatch?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "timeout=10s")
}
