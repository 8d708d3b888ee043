package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/logging"
	"charging-route-service/internal/platform/obs"
)

type FilterConfig struct {
	// Max straight-line and routed distance between a route step and a station.
	RadiusKm float64
	// Kept in reserve when checking origin -> station reachability.
	SafetyBufferKm float64
	MaxViable      int
	MaxConcurrency int
}

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		RadiusKm:       2,
		SafetyBufferKm: 10,
		MaxViable:      5,
		MaxConcurrency: 4,
	}
}

// StationFilter narrows candidate stations to those near the route before the
// low-charge waypoint and reachable on the current charge.
type StationFilter struct {
	cache  *DistanceCache
	cfg    FilterConfig
	logger zerolog.Logger
}

func NewStationFilter(cache *DistanceCache, cfg FilterConfig, logger zerolog.Logger) *StationFilter {
	def := DefaultFilterConfig()
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = def.RadiusKm
	}
	if cfg.SafetyBufferKm < 0 {
		cfg.SafetyBufferKm = def.SafetyBufferKm
	}
	if cfg.MaxViable < 1 {
		cfg.MaxViable = def.MaxViable
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &StationFilter{
		cache:  cache,
		cfg:    cfg,
		logger: logging.Component(logger, "station-filter"),
	}
}

type FilterInput struct {
	Stations    []domain.Station
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Steps       []domain.RouteStep
	Waypoint    domain.Waypoint
	RangeKm     float64
	CapacityKWh float64
}

type stepCandidate struct {
	station      domain.Station
	stepKm       float64
	fromOriginKm float64
}

// Filter scans route steps backward from the waypoint's preferred step and
// returns up to MaxViable stations in discovery order. Within a step,
// candidates keep their input order. Without steps nothing can be found.
func (f *StationFilter) Filter(ctx context.Context, in FilterInput) (_ []domain.ViableStation, err error) {
	ctx, done := obs.Start(ctx, "stations.Filter")
	defer done(&err)

	out := make([]domain.ViableStation, 0, f.cfg.MaxViable)
	if len(in.Steps) == 0 {
		return out, nil
	}

	start := in.Waypoint.PreferredStepIndex
	if start < 0 || start >= len(in.Steps) {
		start = len(in.Steps) - 1
	}

	maxFromOrigin := in.RangeKm - f.cfg.SafetyBufferKm
	accepted := make(map[string]struct{})

	for i := start; i >= 0 && len(out) < f.cfg.MaxViable; i-- {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("filter stations: %w", err)
		}

		stepPt := in.Steps[i].Start

		nearby := make([]domain.Station, 0, 8)
		for _, s := range in.Stations {
			if _, ok := accepted[s.ID]; ok {
				continue
			}
			if !s.IsOperational() {
				continue
			}
			if domain.GreatCircleKm(stepPt, s.Coordinates) <= f.cfg.RadiusKm {
				nearby = append(nearby, s)
			}
		}
		if len(nearby) == 0 {
			continue
		}

		candidates, err := f.resolveCandidates(ctx, in.Origin, stepPt, nearby)
		if err != nil {
			return nil, fmt.Errorf("filter stations: %w", err)
		}

		for _, c := range candidates {
			if c.stepKm > f.cfg.RadiusKm || c.fromOriginKm > maxFromOrigin {
				continue
			}

			toEnd := f.cache.Resolve(ctx, c.station.Coordinates, in.Destination)
			out = append(out, domain.ViableStation{
				Station:                          c.station,
				DistanceFromStartKm:              c.fromOriginKm,
				DistanceToEndKm:                  toEnd,
				BatteryRemainingPercentAtStation: 100 * (1 - c.fromOriginKm/in.CapacityKWh),
			})
			accepted[c.station.ID] = struct{}{}

			if len(out) == f.cfg.MaxViable {
				break
			}
		}
	}

	f.logger.Debug().Int("viable", len(out)).Int("candidates", len(in.Stations)).Msg("station filter done")
	return out, nil
}

// resolveCandidates looks up step -> station and origin -> station distances
// with bounded concurrency. The result keeps the order of nearby. A panic in
// a lookup comes back as an error.
func (f *StationFilter) resolveCandidates(
	ctx context.Context,
	origin, stepPt domain.GeoPoint,
	nearby []domain.Station,
) ([]stepCandidate, error) {
	out := make([]stepCandidate, len(nearby))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.MaxConcurrency)

	for j, s := range nearby {
		j, s := j, s
		g.Go(func() (err error) {
			defer recoverTo(&err, "resolve station "+s.ID)

			out[j] = stepCandidate{
				station:      s,
				stepKm:       f.cache.Resolve(gctx, stepPt, s.Coordinates),
				fromOriginKm: f.cache.Resolve(gctx, origin, s.Coordinates),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
