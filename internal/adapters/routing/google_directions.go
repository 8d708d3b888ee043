package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/obs"
	"charging-route-service/internal/ports"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com"

// directionsStatusError reports a response whose status field is not OK
// (ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED, ...).
type directionsStatusError struct {
	Status  string
	Message string
}

func (e *directionsStatusError) Error() string {
	if e.Message == "" {
		return "directions status " + e.Status
	}
	return fmt.Sprintf("directions status %s: %s", e.Status, e.Message)
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleValue struct {
	Value float64 `json:"value"`
}

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance googleValue `json:"distance"`
			Duration googleValue `json:"duration"`
			Steps    []struct {
				StartLocation googleLatLng `json:"start_location"`
				EndLocation   googleLatLng `json:"end_location"`
				Distance      googleValue  `json:"distance"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// GoogleDirections implements RoutingProvider using the Google Directions API.
// Via points are stopovers, so the response carries one leg per pair.
//
// The provider is safe for concurrent use.
type GoogleDirections struct {
	transport
	apiKey  string
	baseURL string
}

func NewGoogleDirections(apiKey, baseURL string, timeout time.Duration, maxAttempts int) (*GoogleDirections, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google directions: api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}

	return &GoogleDirections{
		transport: newTransport(timeout, maxAttempts, nil),
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

func (g *GoogleDirections) Name() string { return "google" }

func (g *GoogleDirections) Directions(
	ctx context.Context,
	origin domain.GeoPoint,
	destination domain.GeoPoint,
	via ...domain.GeoPoint,
) (_ ports.Directions, err error) {
	defer obs.Time(ctx, "google.Directions")(&err)

	endpoint := g.baseURL + "/maps/api/directions/json"

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("origin", latLngParam(origin))
		q.Set("destination", latLngParam(destination))
		if len(via) > 0 {
			wps := make([]string, 0, len(via))
			for _, v := range via {
				wps = append(wps, latLngParam(v))
			}
			q.Set("waypoints", strings.Join(wps, "|"))
		}
		q.Set("mode", "driving")
		q.Set("key", g.apiKey)
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("google directions request: %w", err)
	}
	defer resp.Body.Close()

	var decoded googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Directions{}, fmt.Errorf("decode google directions response: %w", err)
	}

	if decoded.Status != "OK" {
		return ports.Directions{}, &directionsStatusError{Status: decoded.Status, Message: decoded.ErrorMessage}
	}
	if len(decoded.Routes) == 0 || len(decoded.Routes[0].Legs) == 0 {
		return ports.Directions{}, errors.New("google directions: no routes returned")
	}

	route := decoded.Routes[0]
	out := ports.Directions{
		Legs: make([]ports.DistanceResult, 0, len(route.Legs)),
	}
	for _, leg := range route.Legs {
		out.Legs = append(out.Legs, ports.DistanceResult{
			DistanceMeters:  int(math.Round(leg.Distance.Value)),
			DurationSeconds: int(math.Round(leg.Duration.Value)),
		})
		for _, s := range leg.Steps {
			out.Steps = append(out.Steps, domain.RouteStep{
				Start:      domain.GeoPoint{Lat: s.StartLocation.Lat, Lng: s.StartLocation.Lng},
				End:        domain.GeoPoint{Lat: s.EndLocation.Lat, Lng: s.EndLocation.Lng},
				DistanceKm: s.Distance.Value / 1000,
			})
		}
	}

	return out, nil
}

func latLngParam(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
