package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRecords() []dataset.CountryRecord {
	return []dataset.CountryRecord{
		{
			ISO3: "FRA", ISO2: "FR", Name: "France",
			Latest:     map[string]float64{"gdp": 2.9e12},
			Year:       map[string]int{"gdp": 2022},
			Series:     map[string]map[int]float64{"gdp": {2021: 2.95e12, 2022: 2.9e12}},
			InMetadata: true, InBoundary: true,
		},
		{ISO3: "USA", ISO2: "US", Name: "United States", InMetadata: true},
	}
}

func TestSQLite_LastRefresh_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.LastRefresh(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_LastRefresh_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 8, 30, 15, 123_000_000, time.UTC)
	require.NoError(t, st.SetLastRefresh(ctx, first))

	got, err := st.LastRefresh(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(got))

	// overwrite keeps a single key
	second := first.Add(24 * time.Hour)
	require.NoError(t, st.SetLastRefresh(ctx, second))
	got, err = st.LastRefresh(ctx)
	require.NoError(t, err)
	assert.True(t, second.Equal(got))
}

func TestSQLite_LastRefresh_Corrupt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, 0)`, lastRefreshKey, "yesterday")
	require.NoError(t, err)

	_, err = st.LastRefresh(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSQLite_LatestSnapshot_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.LatestSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SaveAndLoadSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	snap := &Snapshot{Records: testRecords()}
	require.NoError(t, st.SaveSnapshot(ctx, snap))
	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())

	got, err := st.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	require.Len(t, got.Records, 2)
	assert.Equal(t, testRecords()[0], got.Records[0])
	assert.Equal(t, "United States", got.Records[1].Name)
	assert.Nil(t, got.Records[1].ValuePtr("gdp"))
}

func TestSQLite_LatestSnapshotWinsAndPrunes(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var last uuid.UUID
	for i := range 5 {
		snap := &Snapshot{CreatedAt: base.Add(time.Duration(i) * time.Hour), Records: testRecords()[:1]}
		require.NoError(t, st.SaveSnapshot(ctx, snap))
		last = snap.ID
	}

	got, err := st.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, last, got.ID)

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n))
	assert.Equal(t, keepSnapshots, n)
}

func TestSQLite_SaveEmptySnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSnapshot(ctx, &Snapshot{}))
	got, err := st.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Records)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}
