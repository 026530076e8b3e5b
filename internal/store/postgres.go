package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id           UUID PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL,
	record_count INTEGER NOT NULL,
	records      JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);

CREATE TABLE IF NOT EXISTS country_values (
	iso3  TEXT NOT NULL,
	field TEXT NOT NULL,
	year  INTEGER NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (iso3, field, year)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LastRefresh(ctx context.Context) (time.Time, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM app_state WHERE key = $1`, lastRefreshKey,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, eris.Wrap(err, "postgres: get last refresh")
	}
	return parseMillis(value)
}

func (s *PostgresStore) SetLastRefresh(ctx context.Context, t time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO app_state (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		lastRefreshKey, formatMillis(t), s.now().UTC(),
	)
	return eris.Wrap(err, "postgres: set last refresh")
}

// valuesUpsert writes every series point so SQL consumers can query
// indicator history without decoding snapshot JSON.
var valuesUpsert = db.UpsertConfig{
	Table:        "country_values",
	Columns:      []string{"iso3", "field", "year", "value"},
	ConflictKeys: []string{"iso3", "field", "year"},
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	snap.prepare(s.now())
	body, err := encodeRecords(snap.Records)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, created_at, record_count, records) VALUES ($1, $2, $3, $4)`,
		snap.ID.String(), snap.CreatedAt, len(snap.Records), body,
	); err != nil {
		return eris.Wrapf(err, "postgres: insert snapshot %s", snap.ID)
	}

	if _, err := db.BulkUpsert(ctx, tx, valuesUpsert, valueRows(snap.Records)); err != nil {
		return eris.Wrap(err, "postgres: upsert country values")
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC LIMIT $1
		)`, keepSnapshots,
	); err != nil {
		return eris.Wrap(err, "postgres: prune snapshots")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit snapshot")
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		id      string
		created time.Time
		body    []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, created_at, records FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id, &created, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get latest snapshot")
	}

	snapID, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: parse snapshot id %s", id)
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: snapID, CreatedAt: created.UTC(), Records: records}, nil
}

func valueRows(records []dataset.CountryRecord) [][]any {
	var rows [][]any
	for _, r := range records {
		for field, series := range r.Series {
			for year, v := range series {
				rows = append(rows, []any{r.ISO3, field, year, v})
			}
		}
	}
	return rows
}
