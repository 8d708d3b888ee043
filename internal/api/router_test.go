package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charging-route-service/internal/adapters/repositories"
	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/metrics"
)

type stubPlanner struct {
	res  domain.PlanResult
	got  domain.PlanRequest
	call int
}

func (s *stubPlanner) Plan(_ context.Context, req domain.PlanRequest) domain.PlanResult {
	s.call++
	s.got = req
	return s.res
}

type failingRepo struct{}

func (failingRepo) StationsInBounds(context.Context, domain.BoundingBox) ([]domain.Station, error) {
	return nil, errors.New("db down")
}

var testStations = []domain.Station{
	{
		ID:             "st-1",
		Name:           "Lund Supercharger",
		Coordinates:    domain.GeoPoint{Lat: 55.70, Lng: 13.19},
		Status:         "Operational",
		NumberOfPoints: 8,
		Connectors:     []domain.Connector{{Type: "CCS", PowerKW: 250, Quantity: 8}},
	},
	{
		ID:          "st-2",
		Coordinates: domain.GeoPoint{Lat: 57.70, Lng: 11.97},
	},
}

func newTestRouter(t *testing.T, planner *stubPlanner) (http.Handler, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewWithRegistry(reg)
	require.NoError(t, err)

	return NewRouter(RouterDeps{
		Planner:  planner,
		Stations: repositories.NewMemoryStationRepository(testStations),
		Metrics:  m,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
	}), reg
}

const validPlanBody = `{
  "origin_lat": 55.6059, "origin_lng": 13.0007,
  "destination_lat": 59.3293, "destination_lng": 18.0686,
  "battery_range_km": 200, "battery_capacity_kwh": 75
}`

func TestPlans_Success(t *testing.T) {
	st := domain.ScoredStation{
		ViableStation:   domain.ViableStation{Station: testStations[0], DistanceFromStartKm: 18},
		ActualDetourKm:  0.4,
		EfficiencyScore: 1012.5,
		RoutingSuccess:  true,
	}
	planner := &stubPlanner{res: domain.PlanResult{
		Success:         true,
		NeedsCharging:   true,
		Station:         &st,
		Alternatives:    []domain.ScoredStation{},
		TotalDistanceKm: 612.3,
		EstimateSource:  domain.EstimateRouted,
		Warning:         "remaining range at destination 12.0 km is below the 15.0 km buffer",
		Message:         "Charge at station st-1: 0.4 km detour, efficiency score 1012.5",
	}}
	h, _ := newTestRouter(t, planner)

	req := httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(validPlanBody))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	assert.Equal(t, domain.GeoPoint{Lat: 55.6059, Lng: 13.0007}, planner.got.Origin)
	assert.Equal(t, 75.0, planner.got.BatteryCapacityKWh)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "routed", body["estimate_source"])
	assert.Equal(t, []any{}, body["alternatives"])
	assert.NotContains(t, body, "geometry")
	assert.NotContains(t, body, "range_at_arrival_km")

	station := body["station"].(map[string]any)
	assert.Equal(t, "st-1", station["id"])
	assert.Equal(t, 0.4, station["actual_detour_km"])
	assert.Equal(t, 250.0, station["connectors"].([]any)[0].(map[string]any)["power_kw"])
}

func TestPlans_FailureIsStillOK(t *testing.T) {
	planner := &stubPlanner{res: domain.PlanResult{
		Success:       false,
		NeedsCharging: true,
		Alternatives:  []domain.ScoredStation{},
		Message:       "no viable stations found in initial filtering",
	}}
	h, _ := newTestRouter(t, planner)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(validPlanBody)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
	assert.Contains(t, rr.Body.String(), "no viable stations found in initial filtering")
}

func TestPlans_Geometry(t *testing.T) {
	est := domain.RouteEstimate{
		Source:     domain.EstimateRouted,
		DistanceKm: 20,
		Steps: []domain.RouteStep{
			{Start: domain.GeoPoint{Lat: 55.6059, Lng: 13.0007}, End: domain.GeoPoint{Lat: 55.7, Lng: 13.1}, DistanceKm: 12},
			{Start: domain.GeoPoint{Lat: 55.7, Lng: 13.1}, End: domain.GeoPoint{Lat: 55.75, Lng: 13.2}, DistanceKm: 8},
		},
	}
	rangeLeft := 180.0
	planner := &stubPlanner{res: domain.PlanResult{
		Success:          true,
		Alternatives:     []domain.ScoredStation{},
		TotalDistanceKm:  20,
		EstimateSource:   domain.EstimateRouted,
		RangeAtArrivalKm: &rangeLeft,
		Route:            &est,
	}}
	h, _ := newTestRouter(t, planner)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/plans?geometry=true", strings.NewReader(validPlanBody)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		RangeAtArrivalKm *float64 `json:"range_at_arrival_km"`
		Geometry         struct {
			Type     string `json:"type"`
			Features []struct {
				Geometry struct {
					Type        string          `json:"type"`
					Coordinates json.RawMessage `json:"coordinates"`
				} `json:"geometry"`
				Properties map[string]any `json:"properties"`
			} `json:"features"`
		} `json:"geometry"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	require.NotNil(t, body.RangeAtArrivalKm)
	assert.Equal(t, 180.0, *body.RangeAtArrivalKm)

	assert.Equal(t, "FeatureCollection", body.Geometry.Type)
	require.Len(t, body.Geometry.Features, 3)
	assert.Equal(t, "LineString", body.Geometry.Features[0].Geometry.Type)
	assert.Equal(t, "route", body.Geometry.Features[0].Properties["role"])

	var line [][]float64
	require.NoError(t, json.Unmarshal(body.Geometry.Features[0].Geometry.Coordinates, &line))
	assert.Equal(t, [][]float64{{13.0007, 55.6059}, {13.1, 55.7}, {13.2, 55.75}}, line)

	assert.Equal(t, "origin", body.Geometry.Features[1].Properties["role"])
	assert.Equal(t, "destination", body.Geometry.Features[2].Properties["role"])
}

func TestPlans_Validation(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"bad json":        {`{`, "invalid json body"},
		"unknown field":   {`{"hub":"x"}`, "invalid json body"},
		"two objects":     {validPlanBody + validPlanBody, "only one JSON object"},
		"missing field":   {`{"origin_lat":1,"origin_lng":1,"destination_lat":2,"destination_lng":2,"battery_range_km":100}`, "battery_capacity_kwh is required"},
		"latitude range":  {`{"origin_lat":91,"origin_lng":1,"destination_lat":2,"destination_lng":2,"battery_range_km":100,"battery_capacity_kwh":50}`, "origin coordinates out of range"},
		"longitude range": {`{"origin_lat":1,"origin_lng":1,"destination_lat":2,"destination_lng":-181,"battery_range_km":100,"battery_capacity_kwh":50}`, "destination coordinates out of range"},
		"zero range":      {`{"origin_lat":1,"origin_lng":1,"destination_lat":2,"destination_lng":2,"battery_range_km":0,"battery_capacity_kwh":50}`, "battery_range_km must be positive"},
		"negative cap":    {`{"origin_lat":1,"origin_lng":1,"destination_lat":2,"destination_lng":2,"battery_range_km":10,"battery_capacity_kwh":-5}`, "battery_capacity_kwh must be positive"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			planner := &stubPlanner{}
			h, _ := newTestRouter(t, planner)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.want)
			assert.Zero(t, planner.call)
		})
	}
}

func TestPlans_BadGeometryFlag(t *testing.T) {
	h, _ := newTestRouter(t, &stubPlanner{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/plans?geometry=maybe", strings.NewReader(validPlanBody)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStations_InBounds(t *testing.T) {
	h, _ := newTestRouter(t, &stubPlanner{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stations?min_lat=55&min_lng=12&max_lat=56&max_lng=14", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Stations []struct {
			ID         string `json:"id"`
			Connectors []any  `json:"connectors"`
		} `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Stations, 1)
	assert.Equal(t, "st-1", body.Stations[0].ID)
	assert.Len(t, body.Stations[0].Connectors, 1)
}

func TestStations_Validation(t *testing.T) {
	h, _ := newTestRouter(t, &stubPlanner{})

	for _, q := range []string{
		"min_lat=55&min_lng=12&max_lat=56",
		"min_lat=abc&min_lng=12&max_lat=56&max_lng=14",
		"min_lat=57&min_lng=12&max_lat=56&max_lng=14",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stations?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestStations_RepositoryError(t *testing.T) {
	h := NewRouter(RouterDeps{Planner: &stubPlanner{}, Stations: failingRepo{}, Logger: zerolog.Nop()})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stations?min_lat=55&min_lng=12&max_lat=56&max_lng=14", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "db down")
}

func TestHealthAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, &stubPlanner{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/plans", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, rr.Body.String())
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestRouter(t, &stubPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestMetricsEndpointAndHTTPCounters(t *testing.T) {
	h, reg := newTestRouter(t, &stubPlanner{})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	expected := `
# HELP http_requests_total HTTP requests by method, route and status
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/health",status="200"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_request_duration_seconds")
}
