package services

import (
	"errors"
	"math"

	"charging-route-service/internal/domain"
)

const (
	// Share of battery range driven before the low-charge trigger (20% left).
	TriggerRangeFraction = 0.8
	// Interpolated waypoints never go past this share of the trip.
	MaxInterpolationRatio = 0.9
)

var (
	ErrNoRouteSteps         = errors.New("route has no steps")
	ErrInvalidTotalDistance = errors.New("total distance must be positive")
)

// LocateWaypoint walks the route steps until the accumulated distance reaches
// 0.8 x rangeKm and returns that step's start point. When the target lies
// beyond the route the final step's end is returned with nothing left to go.
func LocateWaypoint(steps []domain.RouteStep, totalKm, rangeKm float64) (domain.Waypoint, error) {
	if len(steps) == 0 {
		return domain.Waypoint{}, ErrNoRouteSteps
	}
	if !(totalKm > 0) {
		return domain.Waypoint{}, ErrInvalidTotalDistance
	}

	target := TriggerRangeFraction * rangeKm

	accumulated := 0.0
	for i, s := range steps {
		accumulated += s.DistanceKm
		if accumulated >= target {
			// step lengths may sum past the reported total
			fromStart := math.Min(accumulated, totalKm)
			return domain.Waypoint{
				Point:              s.Start,
				DistanceFromStart:  fromStart,
				DistanceToEnd:      totalKm - fromStart,
				PreferredStepIndex: i,
			}, nil
		}
	}

	last := len(steps) - 1
	return domain.Waypoint{
		Point:              steps[last].End,
		DistanceFromStart:  totalKm,
		DistanceToEnd:      0,
		PreferredStepIndex: last,
	}, nil
}

// InterpolateWaypoint places the trigger point on the straight segment
// origin -> destination, capped at 90% of the way.
func InterpolateWaypoint(origin, destination domain.GeoPoint, totalKm, rangeKm float64) (domain.Waypoint, error) {
	if !(totalKm > 0) {
		return domain.Waypoint{}, ErrInvalidTotalDistance
	}

	ratio := math.Min(TriggerRangeFraction*rangeKm/totalKm, MaxInterpolationRatio)
	if ratio < 0 {
		ratio = 0
	}

	fromStart := ratio * totalKm
	return domain.Waypoint{
		Point:              domain.Interpolate(origin, destination, ratio),
		DistanceFromStart:  fromStart,
		DistanceToEnd:      totalKm - fromStart,
		PreferredStepIndex: -1,
	}, nil
}
