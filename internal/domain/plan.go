package domain

import "errors"

// Projected point where the vehicle reaches the low-charge trigger.
// PreferredStepIndex is -1 when the route has no step geometry.
type Waypoint struct {
	Point              GeoPoint
	DistanceFromStart  float64
	DistanceToEnd      float64
	PreferredStepIndex int
}

// A candidate that passed proximity and reachability checks.
type ViableStation struct {
	Station
	DistanceFromStartKm              float64
	DistanceToEndKm                  float64
	BatteryRemainingPercentAtStation float64
}

// A viable station annotated with detour, charging and ranking figures.
type ScoredStation struct {
	ViableStation
	ActualDetourKm                float64
	TotalDistanceViaStationKm     float64
	TotalDurationViaStationMin    float64
	RoutingSuccess                bool
	MaxPowerKW                    float64
	EstimatedChargingTimeMinutes  float64
	EfficiencyScore               float64
	BatteryPercentAtArrival       float64
	RemainingRangeAtDestinationKm float64
}

// Input of a single planning call. The planner assumes Validate passed.
type PlanRequest struct {
	Origin             GeoPoint
	Destination        GeoPoint
	BatteryRangeKm     float64
	BatteryCapacityKWh float64
}

func (r PlanRequest) Validate() error {
	if !r.Origin.Valid() {
		return errors.New("origin coordinates out of range")
	}
	if !r.Destination.Valid() {
		return errors.New("destination coordinates out of range")
	}
	if !(r.BatteryRangeKm > 0) {
		return errors.New("battery_range_km must be positive")
	}
	if !(r.BatteryCapacityKWh > 0) {
		return errors.New("battery_capacity_kwh must be positive")
	}
	return nil
}

// Outcome of a planning call. Only one charging stop is ever recommended.
// RangeAtArrivalKm and PercentAtArrival are set when no charging is needed.
type PlanResult struct {
	Success          bool
	NeedsCharging    bool
	Station          *ScoredStation
	Alternatives     []ScoredStation
	TotalDistanceKm  float64
	EstimateSource   EstimateSource
	RangeAtArrivalKm *float64
	PercentAtArrival *float64
	Waypoint         *Waypoint
	Warning          string
	Message          string

	// Route is kept for geometry rendering; it is not part of the contract.
	Route *RouteEstimate
}
