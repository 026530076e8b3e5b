package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jacobfeldgoise/country-comparison/internal/boundary"
	"github.com/jacobfeldgoise/country-comparison/internal/colorscale"
	"github.com/jacobfeldgoise/country-comparison/internal/config"
	"github.com/jacobfeldgoise/country-comparison/internal/fetcher"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
	"github.com/jacobfeldgoise/country-comparison/internal/refresh"
	"github.com/jacobfeldgoise/country-comparison/internal/store"
	"github.com/jacobfeldgoise/country-comparison/internal/viewport"
	"github.com/jacobfeldgoise/country-comparison/pkg/worldbank"
)

// appEnv holds everything the commands share.
type appEnv struct {
	Store    store.Store // may be nil when persistence is unavailable
	Catalog  *metric.Catalog
	Features []boundary.Feature
	Client   worldbank.Client
	Service  *refresh.Service
	Frame    viewport.Frame
	Scale    colorscale.Options
	Mode     colorscale.Mode
	Interval time.Duration
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp loads the catalog and boundaries, opens the store, and builds the
// World Bank client and refresh service from cfg. Callers should defer
// env.Close().
func initApp(ctx context.Context, cfg *config.Config) (*appEnv, error) {
	catalog, err := metric.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	var features []boundary.Feature
	if cfg.Boundary.Path != "" {
		features, err = boundary.Load(cfg.Boundary.Path)
		if err != nil {
			return nil, err
		}
	} else {
		zap.L().Warn("boundary.path not set, countries are named from metadata only")
	}

	// Persistence failures never block startup; refresh proceeds without a cache.
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		zap.L().Warn("store unavailable, continuing without persistence", zap.Error(err))
		st = nil
	}

	client := newWorldBankClient(cfg.WorldBank)

	mode, err := colorscale.ParseMode(cfg.Scale.Mode)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, eris.Wrap(err, "init app")
	}

	interval := time.Duration(cfg.Refresh.IntervalHours) * time.Hour
	svc := refresh.New(client, catalog, refresh.BoundaryNames(features), st, refresh.Options{
		Interval:    interval,
		Concurrency: cfg.Refresh.Concurrency,
	})

	limits := viewport.Limits{MinZoom: cfg.View.MinZoom, MaxZoom: cfg.View.MaxZoom}
	frame := viewport.NewFrame("mercator", boundary.Extent(features).Bound(), cfg.View.Width, cfg.View.Height, limits)

	return &appEnv{
		Store:    st,
		Catalog:  catalog,
		Features: features,
		Client:   client,
		Service:  svc,
		Frame:    frame,
		Mode:     mode,
		Interval: interval,
		Scale: colorscale.Options{
			Low:    cfg.Scale.LowColor,
			High:   cfg.Scale.HighColor,
			NoData: cfg.Scale.NoDataColor,
		},
	}, nil
}

func newWorldBankClient(wb config.WorldBankConfig) worldbank.Client {
	httpOpts := fetcher.HTTPOptions{
		UserAgent:  wb.UserAgent,
		Timeout:    time.Duration(wb.TimeoutSecs) * time.Second,
		MaxRetries: wb.MaxRetries,
	}
	if wb.RateLimit > 0 {
		burst := max(int(wb.RateLimit), 1)
		httpOpts.RateLimiters = map[string]*fetcher.AdaptiveLimiter{
			"api.worldbank.org": fetcher.NewAdaptiveLimiter(rate.Limit(wb.RateLimit), burst),
		}
	}

	return worldbank.NewClient(
		worldbank.WithBaseURL(wb.BaseURL),
		worldbank.WithFetcher(fetcher.NewHTTPFetcher(httpOpts)),
		worldbank.WithPerPage(wb.PerPage),
		worldbank.WithCountryPerPage(wb.CountryPerPage),
		worldbank.WithMRV(wb.MRV),
	)
}

// loadData returns the stored dataset, refreshing first when none is cached
// or the cache is older than the refresh interval.
func (e *appEnv) loadData(ctx context.Context) (*refresh.Data, error) {
	e.Service.LoadCached(ctx)
	st := e.Service.Status()
	_, err := e.Service.Data()
	if refresh.ShouldRefresh(st.LastRefresh, time.Now(), err == nil, e.interval()) {
		if err := e.Service.Refresh(ctx); err != nil {
			if _, noData := e.Service.Data(); noData != nil {
				return nil, err
			}
			zap.L().Warn("refresh failed, using cached data", zap.Error(err))
		}
	}
	return e.Service.Data()
}

func (e *appEnv) interval() time.Duration {
	if e.Interval <= 0 {
		return refresh.DefaultInterval
	}
	return e.Interval
}
