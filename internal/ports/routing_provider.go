package ports

import (
	"context"

	"charging-route-service/internal/domain"
)

// Distance and travel duration of one route leg.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// A routed path through two or more points: one leg per consecutive pair,
// plus the ordered step geometry of all legs.
type Directions struct {
	Legs  []DistanceResult
	Steps []domain.RouteStep
}

// Total sums all legs.
func (d Directions) Total() DistanceResult {
	var out DistanceResult
	for _, l := range d.Legs {
		out.DistanceMeters += l.DistanceMeters
		out.DurationSeconds += l.DurationSeconds
	}
	return out
}

// Contract for the external directions service.
type RoutingProvider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Return the first route origin -> via... -> destination.
	Directions(ctx context.Context, origin, destination domain.GeoPoint, via ...domain.GeoPoint) (Directions, error)
}
