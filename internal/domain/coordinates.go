package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Immutable WGS84 coordinates in degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lng, lat] for external API compatibility.
func (p GeoPoint) CoordsToList() []float64 { return []float64{p.Lng, p.Lat} }

func (p GeoPoint) Point() orb.Point { return orb.Point{p.Lng, p.Lat} }

func FromPoint(pt orb.Point) GeoPoint { return GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()} }

// Key renders the point rounded to 6 decimal places (sub-meter granularity).
func (p GeoPoint) Key() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func (p GeoPoint) String() string { return p.Key() }

// Valid reports whether the point lies inside the WGS84 range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// GreatCircleKm returns the haversine distance between two points in kilometers.
func GreatCircleKm(a, b GeoPoint) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point()) / 1000
}

// Interpolate returns the point at ratio along the straight segment a->b.
// Coordinates are interpolated linearly in degree space.
func Interpolate(a, b GeoPoint, ratio float64) GeoPoint {
	return GeoPoint{
		Lat: a.Lat + (b.Lat-a.Lat)*ratio,
		Lng: a.Lng + (b.Lng-a.Lng)*ratio,
	}
}

// Axis-aligned lat/lng rectangle used for station store queries.
type BoundingBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// BoundsOf returns the smallest box containing all points.
func BoundsOf(points ...GeoPoint) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}

	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, p.Point())
	}
	b := mp.Bound()

	return BoundingBox{
		MinLat: b.Min.Lat(),
		MinLng: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLng: b.Max.Lon(),
	}
}

// Pad grows the box by deg degrees on every side, clamped to the WGS84 range.
func (b BoundingBox) Pad(deg float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Max(-90, b.MinLat-deg),
		MinLng: math.Max(-180, b.MinLng-deg),
		MaxLat: math.Min(90, b.MaxLat+deg),
		MaxLng: math.Min(180, b.MaxLng+deg),
	}
}

func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

func (b BoundingBox) Valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLng <= b.MaxLng &&
		GeoPoint{Lat: b.MinLat, Lng: b.MinLng}.Valid() &&
		GeoPoint{Lat: b.MaxLat, Lng: b.MaxLng}.Valid()
}
