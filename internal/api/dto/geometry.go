package dto

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"charging-route-service/internal/domain"
)

// PlanGeometry renders a plan as GeoJSON: the route line (straight when the
// estimate has no steps), origin, destination, waypoint and chosen station.
func PlanGeometry(req domain.PlanRequest, res domain.PlanResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := orb.LineString{req.Origin.Point(), req.Destination.Point()}
	if res.Route != nil && res.Route.HasGeometry() {
		pts := res.Route.Points()
		line = make(orb.LineString, 0, len(pts))
		for _, p := range pts {
			line = append(line, p.Point())
		}
	}

	route := geojson.NewFeature(line)
	route.Properties["role"] = "route"
	route.Properties["estimate_source"] = string(res.EstimateSource)
	route.Properties["distance_km"] = res.TotalDistanceKm
	fc.Append(route)

	fc.Append(pointFeature(req.Origin, "origin"))
	fc.Append(pointFeature(req.Destination, "destination"))

	if res.Waypoint != nil {
		f := pointFeature(res.Waypoint.Point, "waypoint")
		f.Properties["distance_from_start_km"] = res.Waypoint.DistanceFromStart
		fc.Append(f)
	}

	if res.Station != nil {
		f := pointFeature(res.Station.Coordinates, "station")
		f.ID = res.Station.ID
		f.Properties["name"] = res.Station.Name
		f.Properties["efficiency_score"] = res.Station.EfficiencyScore
		fc.Append(f)
	}

	return fc
}

func pointFeature(p domain.GeoPoint, role string) *geojson.Feature {
	f := geojson.NewFeature(p.Point())
	f.Properties["role"] = role
	return f
}
