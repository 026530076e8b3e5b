// Package refresh fetches every configured indicator, merges the results
// into a country dataset and keeps the latest committed dataset available
// to readers.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
	"github.com/jacobfeldgoise/country-comparison/internal/store"
	"github.com/jacobfeldgoise/country-comparison/pkg/worldbank"
)

// ErrNoData is returned when no dataset has been loaded or fetched yet.
var ErrNoData = eris.New("refresh: no data loaded")

// DefaultInterval is the time between scheduled refreshes.
const DefaultInterval = 24 * time.Hour

// Data is one committed dataset.
type Data struct {
	ID          uuid.UUID
	RefreshedAt time.Time
	Index       *dataset.Index
}

// Records returns the committed country records.
func (d *Data) Records() []dataset.CountryRecord {
	return d.Index.Records()
}

// Status describes the refresh state for display.
type Status struct {
	Loading     bool      `json:"loading"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Records     int       `json:"records"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
}

// Options configures a Service.
type Options struct {
	// Interval between scheduled refreshes. Zero means DefaultInterval.
	Interval time.Duration
	// Concurrency caps in-flight fetches. Zero means unlimited.
	Concurrency int
	// Now overrides the clock.
	Now func() time.Time
}

// Service owns the current dataset. Readers call Data and Status from any
// goroutine; refreshes are serialized.
type Service struct {
	client  worldbank.Client
	catalog *metric.Catalog
	geo     dataset.NameSource
	store   store.Store

	interval    time.Duration
	concurrency int
	now         func() time.Time

	current   atomic.Pointer[Data]
	refreshMu sync.Mutex

	mu          sync.Mutex
	loading     bool
	lastRefresh time.Time
	lastErr     error
}

// New creates a Service. st may be nil to disable persistence.
func New(client worldbank.Client, catalog *metric.Catalog, geo dataset.NameSource, st store.Store, opts Options) *Service {
	s := &Service{
		client:      client,
		catalog:     catalog,
		geo:         geo,
		store:       st,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.geo == nil {
		s.geo = dataset.NameSource{}
	}
	return s
}

// Catalog returns the metric catalog the service fetches.
func (s *Service) Catalog() *metric.Catalog {
	return s.catalog
}

// Data returns the committed dataset, or ErrNoData.
func (s *Service) Data() (*Data, error) {
	d := s.current.Load()
	if d == nil {
		return nil, ErrNoData
	}
	return d, nil
}

// Status reports the refresh state.
func (s *Service) Status() Status {
	s.mu.Lock()
	st := Status{Loading: s.loading, LastRefresh: s.lastRefresh}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.mu.Unlock()

	if d := s.current.Load(); d != nil {
		st.Records = d.Index.Len()
		st.SnapshotID = d.ID.String()
	}
	return st
}

// ShouldRefresh reports whether a refresh is due. A refresh is skipped only
// when data exists and less than interval has elapsed since last.
func ShouldRefresh(last, now time.Time, hasData bool, interval time.Duration) bool {
	if !hasData || last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}

// Refresh fetches country metadata and every catalog indicator
// concurrently. If any fetch fails nothing is committed, the previous
// dataset stays in place and the error is recorded for Status. On success
// the merged dataset replaces the current one and is persisted; storage
// failures are logged and otherwise ignored.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	start := s.now()
	meta, bundles, err := s.fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		zap.L().Error("refresh: failed, keeping previous data", zap.Error(err))
		return err
	}

	records := dataset.Merge(meta, s.geo, bundles)
	finished := s.now()
	snap := &store.Snapshot{CreatedAt: finished, Records: records}
	s.persist(ctx, snap, finished)
	s.commit(snap.ID, finished, records)

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	zap.L().Info("refresh: complete",
		zap.Int("countries", len(records)),
		zap.Int("metrics", len(bundles)),
		zap.Duration("elapsed", finished.Sub(start)),
	)
	return nil
}

func (s *Service) fetch(ctx context.Context) (dataset.NameSource, []dataset.MetricBundle, error) {
	defs := s.catalog.Metrics

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	var countries []worldbank.Country
	g.Go(func() error {
		c, err := s.client.Countries(gctx)
		if err != nil {
			return eris.Wrap(err, "refresh: fetch countries")
		}
		countries = c
		return nil
	})

	bundles := make([]dataset.MetricBundle, len(defs))
	for i, def := range defs {
		g.Go(func() error {
			data, err := s.client.Indicator(gctx, def.Code)
			if err != nil {
				return eris.Wrapf(err, "refresh: fetch %s (%s)", def.Field, def.Code)
			}
			bundles[i] = Bundle(def.Field, data)
			zap.L().Debug("refresh: indicator fetched",
				zap.String("field", def.Field),
				zap.String("indicator", def.Code),
				zap.Int("countries", len(bundles[i].Latest)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return MetadataNames(countries), bundles, nil
}

func (s *Service) commit(id uuid.UUID, at time.Time, records []dataset.CountryRecord) {
	s.current.Store(&Data{ID: id, RefreshedAt: at, Index: dataset.NewIndex(records)})
	s.mu.Lock()
	s.lastRefresh = at
	s.mu.Unlock()
}

func (s *Service) persist(ctx context.Context, snap *store.Snapshot, at time.Time) {
	if s.store == nil {
		snap.ID = uuid.New()
		return
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		// last_refresh stays paired with the snapshot actually stored.
		zap.L().Warn("refresh: save snapshot failed", zap.Error(err))
		if snap.ID == uuid.Nil {
			snap.ID = uuid.New()
		}
		return
	}
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if err := s.store.SetLastRefresh(ctx, at); err != nil {
		zap.L().Warn("refresh: save last refresh time failed", zap.Error(err))
	}
}

// LoadCached restores the latest stored snapshot and refresh time. Storage
// errors are logged and treated as an empty cache.
func (s *Service) LoadCached(ctx context.Context) {
	if s.store == nil {
		return
	}

	snap, err := s.store.LatestSnapshot(ctx)
	switch {
	case err == nil:
		s.commit(snap.ID, snap.CreatedAt, snap.Records)
		zap.L().Info("refresh: loaded cached snapshot",
			zap.String("snapshot", snap.ID.String()),
			zap.Int("countries", len(snap.Records)),
		)
	case !errors.Is(err, store.ErrNotFound):
		zap.L().Warn("refresh: read cached snapshot failed", zap.Error(err))
	}

	last, err := s.store.LastRefresh(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		s.lastRefresh = last
		s.mu.Unlock()
	case !errors.Is(err, store.ErrNotFound):
		zap.L().Warn("refresh: read last refresh time failed", zap.Error(err))
	}
}

// Start loads the cache, refreshes if due, then refreshes every interval
// until ctx is done. It blocks.
func (s *Service) Start(ctx context.Context) {
	s.LoadCached(ctx)

	s.mu.Lock()
	last := s.lastRefresh
	s.mu.Unlock()
	hasData := s.current.Load() != nil

	if ShouldRefresh(last, s.now(), hasData, s.interval) {
		_ = s.Refresh(ctx) //nolint:errcheck // recorded in Status
	} else {
		zap.L().Info("refresh: cached data is fresh, skipping",
			zap.Time("last_refresh", last),
			zap.Duration("interval", s.interval),
		)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx) //nolint:errcheck // recorded in Status
		}
	}
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
