package domain

import (
	"math"
	"testing"
)

func TestGeoPointKey(t *testing.T) {
	p := GeoPoint{Lat: 55.60498761, Lng: 13.0038}
	if got, want := p.Key(), "55.604988,13.003800"; got != want {
		t.Fatalf("Key() = %q, want %q", got, want)
	}

	// Points closer than the rounding step share a key.
	q := GeoPoint{Lat: 55.6049876, Lng: 13.00380001}
	if p.Key() != q.Key() {
		t.Fatalf("expected %v and %v to share a key", p, q)
	}
}

func TestGeoPointValid(t *testing.T) {
	tests := []struct {
		p    GeoPoint
		want bool
	}{
		{GeoPoint{Lat: 0, Lng: 0}, true},
		{GeoPoint{Lat: 90, Lng: -180}, true},
		{GeoPoint{Lat: 90.0001, Lng: 0}, false},
		{GeoPoint{Lat: 0, Lng: 180.5}, false},
		{GeoPoint{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestGreatCircleKm(t *testing.T) {
	malmo := GeoPoint{Lat: 55.6050, Lng: 13.0038}
	stockholm := GeoPoint{Lat: 59.3293, Lng: 18.0686}

	got := GreatCircleKm(malmo, stockholm)
	if math.Abs(got-513.35) > 0.5 {
		t.Fatalf("GreatCircleKm = %.2f, want about 513.35", got)
	}
	if back := GreatCircleKm(stockholm, malmo); math.Abs(back-got) > 1e-9 {
		t.Fatalf("distance not symmetric: %.6f vs %.6f", got, back)
	}
	if d := GreatCircleKm(malmo, malmo); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestInterpolate(t *testing.T) {
	a := GeoPoint{Lat: 10, Lng: 20}
	b := GeoPoint{Lat: 20, Lng: 40}

	if got := Interpolate(a, b, 0); got != a {
		t.Fatalf("ratio 0 = %v, want %v", got, a)
	}
	if got := Interpolate(a, b, 1); got != b {
		t.Fatalf("ratio 1 = %v, want %v", got, b)
	}
	if got, want := Interpolate(a, b, 0.25), (GeoPoint{Lat: 12.5, Lng: 25}); got != want {
		t.Fatalf("ratio 0.25 = %v, want %v", got, want)
	}
}

func TestBoundingBox(t *testing.T) {
	box := BoundsOf(
		GeoPoint{Lat: 52.5, Lng: 13.4},
		GeoPoint{Lat: 48.1, Lng: 11.6},
		GeoPoint{Lat: 50.1, Lng: 8.7},
	)
	want := BoundingBox{MinLat: 48.1, MinLng: 8.7, MaxLat: 52.5, MaxLng: 13.4}
	if box != want {
		t.Fatalf("BoundsOf = %+v, want %+v", box, want)
	}
	if !box.Valid() {
		t.Fatal("expected box to be valid")
	}
	if !box.Contains(GeoPoint{Lat: 50, Lng: 10}) {
		t.Fatal("expected box to contain an inner point")
	}
	if box.Contains(GeoPoint{Lat: 53, Lng: 10}) {
		t.Fatal("expected box to exclude a point north of it")
	}

	padded := box.Pad(1)
	if !padded.Contains(GeoPoint{Lat: 53, Lng: 10}) {
		t.Fatal("expected padded box to contain the northern point")
	}

	edge := BoundingBox{MinLat: -89.5, MinLng: -179.5, MaxLat: 89.5, MaxLng: 179.5}.Pad(1)
	if edge != (BoundingBox{MinLat: -90, MinLng: -180, MaxLat: 90, MaxLng: 180}) {
		t.Fatalf("Pad did not clamp: %+v", edge)
	}

	if (BoundingBox{MinLat: 10, MaxLat: 5}).Valid() {
		t.Fatal("expected inverted box to be invalid")
	}
	if got := BoundsOf(); got != (BoundingBox{}) {
		t.Fatalf("BoundsOf() = %+v, want zero box", got)
	}
}
