package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/ports"
)

// MockRoute is one canned answer keyed by the full point sequence.
type MockRoute struct {
	Points  []domain.GeoPoint
	Meters  int
	Seconds int
	Steps   []domain.RouteStep
}

// MockRoutingProvider serves canned routes. Unknown paths go to Func when
// set; otherwise they fail. Err, when set, fails every call.
type MockRoutingProvider struct {
	routes map[string]ports.Directions
	Func   func(ctx context.Context, points []domain.GeoPoint) (ports.Directions, error)
	Err    error

	calls atomic.Int64
}

func NewMockRoutingProvider(routes []MockRoute) *MockRoutingProvider {
	m := make(map[string]ports.Directions, len(routes))
	for _, r := range routes {
		m[pathKey(r.Points)] = ports.Directions{
			Legs:  []ports.DistanceResult{{DistanceMeters: r.Meters, DurationSeconds: r.Seconds}},
			Steps: r.Steps,
		}
	}
	return &MockRoutingProvider{routes: m}
}

// NewStraightLineProvider answers every request with great-circle legs driven
// at speedKmh. Each leg is split into stepsPerLeg equal steps.
func NewStraightLineProvider(speedKmh float64, stepsPerLeg int) *MockRoutingProvider {
	p := NewMockRoutingProvider(nil)
	p.Func = func(_ context.Context, points []domain.GeoPoint) (ports.Directions, error) {
		return straightLine(points, speedKmh, stepsPerLeg), nil
	}
	return p
}

func (p *MockRoutingProvider) Name() string { return "mock" }

// Calls returns how many Directions calls were made.
func (p *MockRoutingProvider) Calls() int { return int(p.calls.Load()) }

func (p *MockRoutingProvider) Directions(
	ctx context.Context,
	origin domain.GeoPoint,
	destination domain.GeoPoint,
	via ...domain.GeoPoint,
) (ports.Directions, error) {
	p.calls.Add(1)

	if p.Err != nil {
		return ports.Directions{}, p.Err
	}

	points := make([]domain.GeoPoint, 0, 2+len(via))
	points = append(points, origin)
	points = append(points, via...)
	points = append(points, destination)

	if d, ok := p.routes[pathKey(points)]; ok {
		return d, nil
	}
	if p.Func != nil {
		return p.Func(ctx, points)
	}

	return ports.Directions{}, fmt.Errorf("missing route %s", pathKey(points))
}

func pathKey(points []domain.GeoPoint) string {
	keys := make([]string, len(points))
	for i, p := range points {
		keys[i] = p.Key()
	}
	return strings.Join(keys, "|")
}

func straightLine(points []domain.GeoPoint, speedKmh float64, stepsPerLeg int) ports.Directions {
	if stepsPerLeg < 1 {
		stepsPerLeg = 1
	}

	var out ports.Directions
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		km := domain.GreatCircleKm(a, b)

		out.Legs = append(out.Legs, ports.DistanceResult{
			DistanceMeters:  int(math.Round(km * 1000)),
			DurationSeconds: int(math.Round(km / speedKmh * 3600)),
		})

		for s := 0; s < stepsPerLeg; s++ {
			start := domain.Interpolate(a, b, float64(s)/float64(stepsPerLeg))
			end := domain.Interpolate(a, b, float64(s+1)/float64(stepsPerLeg))
			out.Steps = append(out.Steps, domain.RouteStep{
				Start:      start,
				End:        end,
				DistanceKm: km / float64(stepsPerLeg),
			})
		}
	}
	return out
}
