package dto

import (
	"github.com/paulmach/orb/geojson"

	"charging-route-service/internal/domain"
)

// Pointers distinguish missing fields from zero values.
type PlanRequest struct {
	OriginLat          *float64 `json:"origin_lat"`
	OriginLng          *float64 `json:"origin_lng"`
	DestinationLat     *float64 `json:"destination_lat"`
	DestinationLng     *float64 `json:"destination_lng"`
	BatteryRangeKm     *float64 `json:"battery_range_km"`
	BatteryCapacityKWh *float64 `json:"battery_capacity_kwh"`
}

type WaypointResponse struct {
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	DistanceFromStart  float64 `json:"distance_from_start_km"`
	DistanceToEnd      float64 `json:"distance_to_end_km"`
	PreferredStepIndex int     `json:"preferred_step_index"`
}

type ScoredStationResponse struct {
	StationResponse
	DistanceFromStartKm              float64 `json:"distance_from_start_km"`
	DistanceToEndKm                  float64 `json:"distance_to_end_km"`
	BatteryRemainingPercentAtStation float64 `json:"battery_remaining_percent_at_station"`
	ActualDetourKm                   float64 `json:"actual_detour_km"`
	TotalDistanceViaStationKm        float64 `json:"total_distance_via_station_km"`
	TotalDurationViaStationMin       float64 `json:"total_duration_via_station_min"`
	RoutingSuccess                   bool    `json:"routing_success"`
	MaxPowerKW                       float64 `json:"max_power_kw"`
	EstimatedChargingTimeMinutes     float64 `json:"estimated_charging_time_minutes"`
	EfficiencyScore                  float64 `json:"efficiency_score"`
	BatteryPercentAtArrival          float64 `json:"battery_percent_at_arrival"`
	RemainingRangeAtDestinationKm    float64 `json:"remaining_range_at_destination_km"`
}

type PlanResponse struct {
	Success          bool                       `json:"success"`
	NeedsCharging    bool                       `json:"needs_charging"`
	Station          *ScoredStationResponse     `json:"station,omitempty"`
	Alternatives     []ScoredStationResponse    `json:"alternatives"`
	TotalDistanceKm  float64                    `json:"total_distance_km"`
	EstimateSource   string                     `json:"estimate_source,omitempty"`
	RangeAtArrivalKm *float64                   `json:"range_at_arrival_km,omitempty"`
	PercentAtArrival *float64                   `json:"percent_at_arrival,omitempty"`
	Waypoint         *WaypointResponse          `json:"waypoint,omitempty"`
	Warning          string                     `json:"warning,omitempty"`
	Message          string                     `json:"message"`
	Geometry         *geojson.FeatureCollection `json:"geometry,omitempty"`
}

func FromScoredStation(s domain.ScoredStation) ScoredStationResponse {
	return ScoredStationResponse{
		StationResponse:                  FromStation(s.Station),
		DistanceFromStartKm:              s.DistanceFromStartKm,
		DistanceToEndKm:                  s.DistanceToEndKm,
		BatteryRemainingPercentAtStation: s.BatteryRemainingPercentAtStation,
		ActualDetourKm:                   s.ActualDetourKm,
		TotalDistanceViaStationKm:        s.TotalDistanceViaStationKm,
		TotalDurationViaStationMin:       s.TotalDurationViaStationMin,
		RoutingSuccess:                   s.RoutingSuccess,
		MaxPowerKW:                       s.MaxPowerKW,
		EstimatedChargingTimeMinutes:     s.EstimatedChargingTimeMinutes,
		EfficiencyScore:                  s.EfficiencyScore,
		BatteryPercentAtArrival:          s.BatteryPercentAtArrival,
		RemainingRangeAtDestinationKm:    s.RemainingRangeAtDestinationKm,
	}
}

func FromPlanResult(res domain.PlanResult) PlanResponse {
	out := PlanResponse{
		Success:          res.Success,
		NeedsCharging:    res.NeedsCharging,
		Alternatives:     make([]ScoredStationResponse, 0, len(res.Alternatives)),
		TotalDistanceKm:  res.TotalDistanceKm,
		EstimateSource:   string(res.EstimateSource),
		RangeAtArrivalKm: res.RangeAtArrivalKm,
		PercentAtArrival: res.PercentAtArrival,
		Warning:          res.Warning,
		Message:          res.Message,
	}

	if res.Station != nil {
		st := FromScoredStation(*res.Station)
		out.Station = &st
	}
	for _, alt := range res.Alternatives {
		out.Alternatives = append(out.Alternatives, FromScoredStation(alt))
	}
	if wp := res.Waypoint; wp != nil {
		out.Waypoint = &WaypointResponse{
			Lat:                wp.Point.Lat,
			Lng:                wp.Point.Lng,
			DistanceFromStart:  wp.DistanceFromStart,
			DistanceToEnd:      wp.DistanceToEnd,
			PreferredStepIndex: wp.PreferredStepIndex,
		}
	}

	return out
}
