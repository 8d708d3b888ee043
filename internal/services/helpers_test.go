package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"charging-route-service/internal/adapters/cache"
	"charging-route-service/internal/domain"
	"charging-route-service/internal/ports"
)

var (
	malmo     = domain.GeoPoint{Lat: 55.6059, Lng: 13.0007}
	stockholm = domain.GeoPoint{Lat: 59.3293, Lng: 18.0686}
)

func newTestDistances(p ports.RoutingProvider) *RouteDistanceProvider {
	return NewRouteDistanceProvider(p, time.Second, nil, zerolog.Nop())
}

func newTestCache(d *RouteDistanceProvider) *DistanceCache {
	return NewDistanceCache(cache.NewMemoryDistanceStore(10_000, 0), d, nil, zerolog.Nop())
}

func newTestPlanner(t *testing.T, provider ports.RoutingProvider, repo ports.StationRepository) *Planner {
	t.Helper()

	logger := zerolog.Nop()
	distances := newTestDistances(provider)
	dc := newTestCache(distances)

	p, err := NewPlanner(PlannerDeps{
		Distances:      distances,
		Stations:       repo,
		Filter:         NewStationFilter(dc, DefaultFilterConfig(), logger),
		Scorer:         NewStationScorer(distances, dc, EfficiencyScorer{}, ScorerConfig{MaxScored: 10, MaxConcurrency: 4}, logger),
		BBoxPaddingDeg: 0.1,
		Logger:         logger,
	})
	require.NoError(t, err)
	return p
}

func station(id string, p domain.GeoPoint) domain.Station {
	return domain.Station{
		ID:             id,
		Name:           "Station " + id,
		Coordinates:    p,
		Status:         domain.StatusOperational,
		NumberOfPoints: 4,
		Connectors:     []domain.Connector{{Type: "CCS", PowerKW: 150, Quantity: 4}},
	}
}

func northOf(p domain.GeoPoint, deg float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat + deg, Lng: p.Lng}
}

func eastOf(p domain.GeoPoint, deg float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat, Lng: p.Lng + deg}
}

// straightSteps returns n steps heading north from start, each deg long.
func straightSteps(start domain.GeoPoint, n int, deg float64) []domain.RouteStep {
	steps := make([]domain.RouteStep, 0, n)
	cur := start
	for i := 0; i < n; i++ {
		next := northOf(cur, deg)
		steps = append(steps, domain.RouteStep{Start: cur, End: next, DistanceKm: domain.GreatCircleKm(cur, next)})
		cur = next
	}
	return steps
}

func viableIDs(vs []domain.ViableStation) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}

func scoredIDs(ss []domain.ScoredStation) []string {
	ids := make([]string, len(ss))
	for i, s := range ss {
		ids[i] = s.ID
	}
	return ids
}
