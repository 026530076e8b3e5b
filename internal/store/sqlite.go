package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	record_count INTEGER NOT NULL,
	records      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LastRefresh(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, lastRefreshKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, eris.Wrap(err, "sqlite: get last refresh")
	}
	return parseMillis(value)
}

func (s *SQLiteStore) SetLastRefresh(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		lastRefreshKey, formatMillis(t), s.now().UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: set last refresh")
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	snap.prepare(s.now())
	body, err := encodeRecords(snap.Records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, record_count, records) VALUES (?, ?, ?, ?)`,
		snap.ID.String(), snap.CreatedAt.UnixMilli(), len(snap.Records), string(body),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert snapshot %s", snap.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC LIMIT ?
		)`, keepSnapshots,
	); err != nil {
		return eris.Wrap(err, "sqlite: prune snapshots")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		id      string
		created int64
		body    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, records FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id, &created, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get latest snapshot")
	}

	snapID, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse snapshot id %s", id)
	}
	records, err := decodeRecords([]byte(body))
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: snapID, CreatedAt: time.UnixMilli(created).UTC(), Records: records}, nil
}
