package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"charging-route-service/internal/adapters/cache"
	"charging-route-service/internal/adapters/repositories"
	"charging-route-service/internal/adapters/routing"
	"charging-route-service/internal/config"
	"charging-route-service/internal/platform/db"
	"charging-route-service/internal/platform/metrics"
	"charging-route-service/internal/ports"
	"charging-route-service/internal/services"
)

// app holds the wired planner and everything that must be closed with it.
type app struct {
	planner  *services.Planner
	stations ports.StationRepository
	metrics  *metrics.Metrics
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp wires concrete adapters behind ports. A nil reg registers metrics on
// the default Prometheus registerer.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.metrics, err = metrics.NewWithRegistry(reg)
	if err != nil {
		return nil, err
	}

	a.stations, err = a.buildStations(ctx, cfg.Stations, logger)
	if err != nil {
		return nil, err
	}

	provider, err := buildRoutingProvider(cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		logger.Warn().Str("provider", cfg.Routing.Provider).
			Msg("routing disabled; all distances are great-circle approximations")
	}

	store := a.buildDistanceStore(ctx, cfg.Cache, logger)

	distances := services.NewRouteDistanceProvider(provider, cfg.Routing.Timeout, a.metrics, logger)
	distanceCache := services.NewDistanceCache(store, distances, a.metrics, logger)

	filter := services.NewStationFilter(distanceCache, services.FilterConfig{
		RadiusKm:       cfg.Planner.FilterRadiusKm,
		SafetyBufferKm: cfg.Planner.SafetyBufferKm,
		MaxViable:      cfg.Planner.MaxViable,
		MaxConcurrency: cfg.Planner.MaxConcurrency,
	}, logger)
	scorer := services.NewStationScorer(distances, distanceCache, services.EfficiencyScorer{}, services.ScorerConfig{
		MaxScored:      cfg.Planner.MaxScored,
		MaxConcurrency: cfg.Planner.MaxConcurrency,
	}, logger)

	a.planner, err = services.NewPlanner(services.PlannerDeps{
		Distances:      distances,
		Stations:       a.stations,
		Filter:         filter,
		Scorer:         scorer,
		BBoxPaddingDeg: cfg.Stations.BBoxPaddingDeg,
		Metrics:        a.metrics,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *app) buildStations(ctx context.Context, cfg config.StationsConfig, logger zerolog.Logger) (ports.StationRepository, error) {
	if cfg.Driver == "memory" {
		stations, err := repositories.LoadStationSeeds(cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("build stations: %w", err)
		}
		logger.Info().Int("stations", len(stations)).Msg("in-memory station store loaded")
		return repositories.NewMemoryStationRepository(stations), nil
	}

	dialect, err := repositories.DialectFor(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("build stations: %w", err)
	}

	var conn *sql.DB
	switch dialect {
	case repositories.DialectPostgres:
		conn, err = db.Open(cfg.DSN)
	default:
		conn, err = db.OpenSQLite(cfg.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("build stations: %w", err)
	}
	a.closers = append(a.closers, conn.Close)

	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return nil, fmt.Errorf("build stations: %w", err)
	}
	if cfg.SeedPath != "" {
		n, err := repositories.SeedFromJSON(ctx, conn, dialect, cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("build stations: %w", err)
		}
		logger.Info().Int("stations", n).Str("driver", dialect.String()).Msg("station store seeded")
	}

	return repositories.NewSQLStationRepository(conn, dialect), nil
}

// buildRoutingProvider returns a nil interface when routing is disabled.
func buildRoutingProvider(c *config.Config) (ports.RoutingProvider, error) {
	if !c.RoutingEnabled() {
		return nil, nil
	}

	cfg := c.Routing
	switch cfg.Provider {
	case "google":
		p, err := routing.NewGoogleDirections(cfg.APIKey, cfg.BaseURL, cfg.Timeout, cfg.MaxAttempts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ors":
		p, err := routing.NewORSDirections(cfg.APIKey, cfg.BaseURL, cfg.Profile, cfg.Timeout, cfg.MaxAttempts)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("build routing provider: unknown provider %q", cfg.Provider)
	}
}

func (a *app) buildDistanceStore(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) ports.DistanceStore {
	local := cache.NewMemoryDistanceStore(cfg.MaxEntries, cfg.TTL)
	if cfg.RedisAddr == "" {
		return local
	}

	shared := cache.NewRedisDistanceStore(ctx, cache.RedisConfig{
		Addr:           cfg.RedisAddr,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		TTL:            cfg.RedisTTL,
		DisableOnError: true,
	}, logger)
	a.closers = append(a.closers, shared.Close)

	return cache.NewTieredDistanceStore(local, shared)
}
