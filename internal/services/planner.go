package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/logging"
	"charging-route-service/internal/platform/metrics"
	"charging-route-service/internal/ports"
)

const (
	// Minimum range left at the destination, as a share of battery capacity.
	DestinationBufferFraction = 0.2

	MsgNoViableStations   = "no viable stations found in initial filtering"
	MsgNoScoredStations   = "no stations found within optimal charging range"
	warnUnreachable       = "destination not reachable after charging: %.1f km short"
	warnBelowBuffer       = "remaining range at destination %.1f km is below the %.1f km buffer"
	msgChargeRecommended  = "Charge at station %s: %.1f km detour, efficiency score %.1f"
	msgNoChargingRequired = "No charging needed: %.1f km range left on arrival"
)

// Planner sequences distance estimation, waypoint projection, station
// filtering and scoring into a single-stop recommendation.
type Planner struct {
	distances      *RouteDistanceProvider
	stations       ports.StationRepository
	filter         *StationFilter
	scorer         *StationScorer
	bboxPaddingDeg float64
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

type PlannerDeps struct {
	Distances      *RouteDistanceProvider
	Stations       ports.StationRepository
	Filter         *StationFilter
	Scorer         *StationScorer
	BBoxPaddingDeg float64
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

func NewPlanner(d PlannerDeps) (*Planner, error) {
	var errs []error
	if d.Distances == nil {
		errs = append(errs, errors.New("distances is nil"))
	}
	if d.Stations == nil {
		errs = append(errs, errors.New("station repository is nil"))
	}
	if d.Filter == nil {
		errs = append(errs, errors.New("station filter is nil"))
	}
	if d.Scorer == nil {
		errs = append(errs, errors.New("station scorer is nil"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("new planner: %w", err)
	}

	return &Planner{
		distances:      d.Distances,
		stations:       d.Stations,
		filter:         d.Filter,
		scorer:         d.Scorer,
		bboxPaddingDeg: d.BBoxPaddingDeg,
		metrics:        d.Metrics,
		logger:         logging.Component(d.Logger, "planner"),
	}, nil
}

// Plan never fails: errors and panics become a result with Success=false.
// Inputs are assumed validated by the caller.
func (p *Planner) Plan(ctx context.Context, req domain.PlanRequest) (res domain.PlanResult) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("planning panicked")
			res = failedPlan(fmt.Sprintf("internal error: %v", r))
		}
		p.metrics.PlanCompleted(planOutcome(res), time.Since(started))
	}()

	est := p.distances.Estimate(ctx, req.Origin, req.Destination)

	base := domain.PlanResult{
		TotalDistanceKm: est.DistanceKm,
		EstimateSource:  est.Source,
		Alternatives:    []domain.ScoredStation{},
		Route:           &est,
	}

	if req.BatteryRangeKm >= est.DistanceKm {
		rangeAtArrival := req.BatteryRangeKm - est.DistanceKm
		percentAtArrival := rangeAtArrival / req.BatteryCapacityKWh * 100

		res = base
		res.Success = true
		res.NeedsCharging = false
		res.RangeAtArrivalKm = &rangeAtArrival
		res.PercentAtArrival = &percentAtArrival
		res.Message = fmt.Sprintf(msgNoChargingRequired, rangeAtArrival)
		return res
	}

	base.NeedsCharging = true

	wp, err := p.waypoint(req, est)
	if err != nil {
		return withFailure(base, fmt.Sprintf("locate waypoint: %v", err))
	}
	base.Waypoint = &wp

	box := domain.BoundsOf(append(est.Points(), req.Origin, req.Destination)...).Pad(p.bboxPaddingDeg)
	candidates, err := p.stations.StationsInBounds(ctx, box)
	if err != nil {
		p.logger.Error().Err(err).Msg("station lookup failed")
		return withFailure(base, fmt.Sprintf("station lookup failed: %v", err))
	}

	viable, err := p.filter.Filter(ctx, FilterInput{
		Stations:    candidates,
		Origin:      req.Origin,
		Destination: req.Destination,
		Steps:       est.Steps,
		Waypoint:    wp,
		RangeKm:     req.BatteryRangeKm,
		CapacityKWh: req.BatteryCapacityKWh,
	})
	if err != nil {
		return withFailure(base, err.Error())
	}
	if len(viable) == 0 {
		return withFailure(base, MsgNoViableStations)
	}

	scored, err := p.scorer.Score(ctx, ScoreInput{
		Viable:      viable,
		Origin:      req.Origin,
		Destination: req.Destination,
		TotalKm:     est.DistanceKm,
		CapacityKWh: req.BatteryCapacityKWh,
	})
	if err != nil {
		return withFailure(base, err.Error())
	}
	if len(scored) == 0 {
		return withFailure(base, MsgNoScoredStations)
	}

	best := scored[0]

	res = base
	res.Success = true
	res.Station = &best
	res.Alternatives = append(res.Alternatives, scored[1:]...)
	res.Message = fmt.Sprintf(msgChargeRecommended, best.ID, best.ActualDetourKm, best.EfficiencyScore)

	buffer := DestinationBufferFraction * req.BatteryCapacityKWh
	switch {
	case best.RemainingRangeAtDestinationKm < 0:
		res.Warning = fmt.Sprintf(warnUnreachable, -best.RemainingRangeAtDestinationKm)
	case best.RemainingRangeAtDestinationKm < buffer:
		res.Warning = fmt.Sprintf(warnBelowBuffer, best.RemainingRangeAtDestinationKm, buffer)
	}

	p.logger.Info().
		Str("station", best.ID).
		Float64("detour_km", best.ActualDetourKm).
		Float64("score", best.EfficiencyScore).
		Int("alternatives", len(res.Alternatives)).
		Str("estimate", string(est.Source)).
		Msg("charging stop selected")

	return res
}

func (p *Planner) waypoint(req domain.PlanRequest, est domain.RouteEstimate) (domain.Waypoint, error) {
	if est.HasGeometry() {
		wp, err := LocateWaypoint(est.Steps, est.DistanceKm, req.BatteryRangeKm)
		if err == nil {
			return wp, nil
		}
		p.logger.Debug().Err(err).Msg("step walk failed, interpolating waypoint")
	}
	return InterpolateWaypoint(req.Origin, req.Destination, est.DistanceKm, req.BatteryRangeKm)
}

func withFailure(base domain.PlanResult, msg string) domain.PlanResult {
	base.Success = false
	base.Message = msg
	return base
}

func failedPlan(msg string) domain.PlanResult {
	return domain.PlanResult{
		Success:      false,
		Alternatives: []domain.ScoredStation{},
		Message:      msg,
	}
}

func planOutcome(res domain.PlanResult) string {
	switch {
	case !res.Success:
		return "failed"
	case !res.NeedsCharging:
		return "no_charge"
	case res.Warning != "":
		return "charge_warning"
	default:
		return "charge"
	}
}
