// Package store persists refresh snapshots and the last-refresh timestamp.
package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/jacobfeldgoise/country-comparison/internal/config"
	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
)

// ErrNotFound is returned when a requested value has never been stored.
var ErrNotFound = eris.New("store: not found")

// lastRefreshKey holds the epoch-millisecond time of the last successful refresh.
const lastRefreshKey = "last_refresh"

// keepSnapshots is how many snapshots survive each save.
const keepSnapshots = 3

// DefaultSQLitePath is used when the sqlite driver has no database_url.
const DefaultSQLitePath = "country-comparison.db"

// Snapshot is one committed refresh result.
type Snapshot struct {
	ID        uuid.UUID               `json:"id"`
	CreatedAt time.Time               `json:"created_at"`
	Records   []dataset.CountryRecord `json:"records"`
}

// Store defines persistence for refresh state.
type Store interface {
	LastRefresh(ctx context.Context) (time.Time, error)
	SetLastRefresh(ctx context.Context, t time.Time) error

	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LatestSnapshot(ctx context.Context) (*Snapshot, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the configured store and runs its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		path := cfg.DatabaseURL
		if path == "" {
			path = DefaultSQLitePath
		}
		st, err = NewSQLite(path)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// prepare fills in a missing ID and creation time.
func (s *Snapshot) prepare(now time.Time) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.CreatedAt = s.CreatedAt.UTC()
}

func encodeRecords(records []dataset.CountryRecord) ([]byte, error) {
	if records == nil {
		records = []dataset.CountryRecord{}
	}
	b, err := json.Marshal(records)
	return b, eris.Wrap(err, "store: marshal records")
}

func decodeRecords(b []byte) ([]dataset.CountryRecord, error) {
	var records []dataset.CountryRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal records")
	}
	return records, nil
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "store: parse %s", lastRefreshKey)
	}
	return time.UnixMilli(ms).UTC(), nil
}
