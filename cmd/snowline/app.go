package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/snowline-etl-service/internal/adapter/mapbox"
	"github.com/couchcryptid/snowline-etl-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/snowline-etl-service/internal/adapter/snotel"
	"github.com/couchcryptid/snowline-etl-service/internal/adapter/store"
	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/config"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/couchcryptid/snowline-etl-service/internal/pipeline"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	dbConnectAttempts = 6
	dbInitialBackoff  = 500 * time.Millisecond
	dbMaxBackoff      = 5 * time.Second
)

// environment is filled in by the root command before any subcommand runs.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

// app holds the wired collaborators shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	store    *store.Store
	backend  cache.Backend
	cache    *cache.Cache
	geocoder domain.Geocoder
	sink     *kafka.Publisher

	orchestrators map[string]pipeline.Orchestrator
}

func newApp(ctx context.Context, env *environment) (*app, error) {
	cfg, logger := env.cfg, env.logger
	metrics := observability.NewMetrics()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDriver == store.DriverSQLite {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}

	backend, err := cache.NewBackend(cfg.CacheBackend, cfg.CacheURL, cfg.CacheToken, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   st,
		backend: backend,
		cache:   cache.New(backend, logger, metrics),
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		a.geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	opts := pipeline.Options{
		Logger:  logger,
		Metrics: metrics,
		Cache:   a.cache,
		Delay:   cfg.BatchDelay,
	}
	if cfg.BatchDelay == 0 {
		opts.Delay = -1
	}
	if len(cfg.KafkaBrokers) > 0 {
		a.sink = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaMetricsTopic, logger)
		opts.Sink = a.sink
		logger.Info("run metrics publishing enabled", "topic", cfg.KafkaMetricsTopic)
	}

	weather := openmeteo.NewClient(cfg.WeatherAPIURL, cfg.WeatherTimeout, logger, metrics)
	awdb := snotel.NewClient(cfg.SnotelAPIURL, cfg.SnotelTimeout, logger, metrics)
	a.orchestrators = map[string]pipeline.Orchestrator{
		pipeline.NameForecast:   pipeline.NewForecastRefresh(st, weather, opts),
		pipeline.NameConditions: pipeline.NewConditionsRefresh(st, weather, opts),
		pipeline.NameSnotel:     pipeline.NewSnotelDaily(st, awdb, opts),
	}
	return a, nil
}

// openStore connects to the database, backing off while it comes up.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	backoff := dbInitialBackoff
	for attempt := 1; ; attempt++ {
		st, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
		if err == nil {
			if err = st.CheckReadiness(ctx); err == nil {
				return st, nil
			}
			st.Close()
		}
		if attempt == dbConnectAttempts {
			return nil, fmt.Errorf("connect database after %d attempts: %w", attempt, err)
		}
		logger.Warn("database not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, dbMaxBackoff)
	}
}

func (a *app) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}
	if c, ok := a.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Error("cache close error", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}
