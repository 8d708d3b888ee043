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
	// Assumed average speed when no routed duration is available.
	FallbackSpeedKmh = 80.0
	// Upper bound on a single provider call.
	DefaultProviderTimeout = 10 * time.Second
)

var errRoutingUnavailable = errors.New("routing provider not configured")

// RouteDistanceProvider wraps the external routing provider with a hard
// per-call timeout and a great-circle fallback. A nil provider means every
// estimate is approximate.
type RouteDistanceProvider struct {
	provider ports.RoutingProvider
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewRouteDistanceProvider(
	provider ports.RoutingProvider,
	timeout time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *RouteDistanceProvider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &RouteDistanceProvider{
		provider: provider,
		timeout:  timeout,
		metrics:  m,
		logger:   logging.Component(logger, "routing"),
	}
}

func (r *RouteDistanceProvider) providerName() string {
	if r.provider == nil {
		return "none"
	}
	return r.provider.Name()
}

// directions calls the provider under the per-call timeout. Results without
// legs are treated as failures.
func (r *RouteDistanceProvider) directions(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	via ...domain.GeoPoint,
) (ports.Directions, error) {
	if r.provider == nil {
		r.metrics.RoutingRequest("none", "unavailable")
		return ports.Directions{}, errRoutingUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	d, err := r.provider.Directions(ctx, origin, destination, via...)
	if err == nil && len(d.Legs) == 0 {
		err = errors.New("empty directions result")
	}
	if err != nil {
		r.metrics.RoutingRequest(r.providerName(), "fallback")
		return ports.Directions{}, err
	}

	r.metrics.RoutingRequest(r.providerName(), "routed")
	return d, nil
}

// Estimate never fails: provider errors, non-OK answers, timeouts and a
// missing provider all produce an approximate estimate without steps.
func (r *RouteDistanceProvider) Estimate(ctx context.Context, origin, destination domain.GeoPoint) domain.RouteEstimate {
	d, err := r.directions(ctx, origin, destination)
	if err != nil {
		if !errors.Is(err, errRoutingUnavailable) {
			r.logger.Warn().
				Err(err).
				Str("origin", origin.String()).
				Str("destination", destination.String()).
				Msg("routing failed, using great-circle estimate")
		}
		return approximateEstimate(origin, destination)
	}

	total := d.Total()
	km := float64(total.DistanceMeters) / 1000
	sec := float64(total.DurationSeconds)

	est := domain.RouteEstimate{
		Source:          domain.EstimateRouted,
		DistanceKm:      km,
		DurationSeconds: sec,
		Steps:           d.Steps,
	}
	if sec > 0 {
		est.AvgSpeedKmh = km / (sec / 3600)
	}
	return est
}

// LegKm resolves a single point-to-point distance with the same fallback as
// Estimate. routed reports whether the provider answered.
func (r *RouteDistanceProvider) LegKm(ctx context.Context, a, b domain.GeoPoint) (km float64, routed bool) {
	d, err := r.directions(ctx, a, b)
	if err != nil {
		if !errors.Is(err, errRoutingUnavailable) {
			r.logger.Warn().
				Err(err).
				Str("origin", a.String()).
				Str("destination", b.String()).
				Msg("leg lookup failed, using great-circle distance")
		}
		return domain.GreatCircleKm(a, b), false
	}
	return float64(d.Total().DistanceMeters) / 1000, true
}

// Via routes origin -> via -> destination and returns the summed legs.
// Unlike Estimate it reports failure so callers can pick their own fallback.
func (r *RouteDistanceProvider) Via(
	ctx context.Context,
	origin, via, destination domain.GeoPoint,
) (km float64, durationSec float64, err error) {
	d, err := r.directions(ctx, origin, destination, via)
	if err != nil {
		return 0, 0, fmt.Errorf("route via %s: %w", via, err)
	}
	total := d.Total()
	return float64(total.DistanceMeters) / 1000, float64(total.DurationSeconds), nil
}

func approximateEstimate(origin, destination domain.GeoPoint) domain.RouteEstimate {
	km := domain.GreatCircleKm(origin, destination)
	return domain.RouteEstimate{
		Source:          domain.EstimateApproximate,
		DistanceKm:      km,
		DurationSeconds: km / FallbackSpeedKmh * 3600,
		AvgSpeedKmh:     FallbackSpeedKmh,
	}
}
