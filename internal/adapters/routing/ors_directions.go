package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/obs"
	"charging-route-service/internal/ports"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

type orsDirectionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type orsDirectionsResponse struct {
	Features []struct {
		Geometry   *geojson.Geometry `json:"geometry"`
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Steps    []struct {
					Distance  float64 `json:"distance"`
					WayPoints []int   `json:"way_points"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSDirections implements RoutingProvider using the OpenRouteService
// directions endpoint in GeoJSON form. Step coordinates are taken from the
// route line via each step's way_points indices.
//
// The provider is safe for concurrent use.
type ORSDirections struct {
	transport
	baseURL string
	profile string
}

func NewORSDirections(apiKey, baseURL, profile string, timeout time.Duration, maxAttempts int) (*ORSDirections, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ors directions: api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultORSBaseURL
	}
	if profile == "" {
		profile = "driving-car"
	}

	return &ORSDirections{
		transport: newTransport(timeout, maxAttempts, func(req *http.Request) {
			req.Header.Set("Authorization", apiKey)
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
	}, nil
}

func (o *ORSDirections) Name() string { return "ors" }

func (o *ORSDirections) Directions(
	ctx context.Context,
	origin domain.GeoPoint,
	destination domain.GeoPoint,
	via ...domain.GeoPoint,
) (_ ports.Directions, err error) {
	defer obs.Time(ctx, "ors.Directions")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	coords := make([][]float64, 0, 2+len(via))
	coords = append(coords, origin.CoordsToList())
	for _, v := range via {
		coords = append(coords, v.CoordsToList())
	}
	coords = append(coords, destination.CoordsToList())

	payload, err := json.Marshal(orsDirectionsRequest{Coordinates: coords})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Directions{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return ports.Directions{}, errors.New("ORS directions: no routes returned")
	}

	feature := decoded.Features[0]
	if len(feature.Properties.Segments) != len(coords)-1 {
		return ports.Directions{}, fmt.Errorf(
			"ORS directions: expected %d segments, got %d",
			len(coords)-1, len(feature.Properties.Segments),
		)
	}

	var line orb.LineString
	if feature.Geometry != nil {
		line, _ = feature.Geometry.Coordinates.(orb.LineString)
	}

	out := ports.Directions{
		Legs: make([]ports.DistanceResult, 0, len(feature.Properties.Segments)),
	}
	for _, seg := range feature.Properties.Segments {
		// ORS returns float metrics; round to nearest integer for domain consistency.
		out.Legs = append(out.Legs, ports.DistanceResult{
			DistanceMeters:  int(math.Round(seg.Distance)),
			DurationSeconds: int(math.Round(seg.Duration)),
		})

		for _, s := range seg.Steps {
			if len(s.WayPoints) != 2 || s.WayPoints[0] < 0 || s.WayPoints[1] >= len(line) {
				continue
			}
			out.Steps = append(out.Steps, domain.RouteStep{
				Start:      domain.FromPoint(line[s.WayPoints[0]]),
				End:        domain.FromPoint(line[s.WayPoints[1]]),
				DistanceKm: s.Distance / 1000,
			})
		}
	}

	return out, nil
}
