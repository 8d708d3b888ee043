package domain

// Represents one geometric segment of a provider-returned route.
// Steps are ordered from origin to destination.
type RouteStep struct {
	Start      GeoPoint
	End        GeoPoint
	DistanceKm float64
}

// EstimateSource tags how a RouteEstimate was produced.
type EstimateSource string

const (
	// EstimateRouted comes from the external routing provider and carries step geometry.
	EstimateRouted EstimateSource = "routed"
	// EstimateApproximate is a great-circle fallback with a fixed assumed speed and no steps.
	EstimateApproximate EstimateSource = "approximate"
)

// Represents the total trip distance and duration for an origin/destination pair.
// Approximate estimates never carry steps; routed estimates may.
type RouteEstimate struct {
	Source          EstimateSource
	DistanceKm      float64
	DurationSeconds float64
	AvgSpeedKmh     float64
	Steps           []RouteStep
}

// HasGeometry reports whether fine-grained waypoint projection is possible.
func (e RouteEstimate) HasGeometry() bool { return len(e.Steps) > 0 }

// Points returns the route polyline: every step start plus the final step end.
func (e RouteEstimate) Points() []GeoPoint {
	if len(e.Steps) == 0 {
		return nil
	}
	pts := make([]GeoPoint, 0, len(e.Steps)+1)
	for _, s := range e.Steps {
		pts = append(pts, s.Start)
	}
	return append(pts, e.Steps[len(e.Steps)-1].End)
}
