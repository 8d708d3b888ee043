package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"charging-route-service/internal/api/dto"
	"charging-route-service/internal/domain"
)

type Planner interface {
	Plan(ctx context.Context, req domain.PlanRequest) domain.PlanResult
}

type PlanHandler struct {
	Planner Planner
}

// Plan validates the trip, runs the charging-stop pipeline and returns the
// result. Planning failures are part of the result, so the status is 200
// whenever the request itself was valid.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	planReq, err := validatePlanRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	withGeometry := false
	if v := r.URL.Query().Get("geometry"); v != "" {
		withGeometry, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "geometry must be a boolean")
			return
		}
	}

	res := h.Planner.Plan(r.Context(), planReq)

	out := dto.FromPlanResult(res)
	if withGeometry {
		out.Geometry = dto.PlanGeometry(planReq, res)
	}

	writeJSON(w, r, http.StatusOK, out)
}

func validatePlanRequest(req dto.PlanRequest) (domain.PlanRequest, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"origin_lat", req.OriginLat},
		{"origin_lng", req.OriginLng},
		{"destination_lat", req.DestinationLat},
		{"destination_lng", req.DestinationLng},
		{"battery_range_km", req.BatteryRangeKm},
		{"battery_capacity_kwh", req.BatteryCapacityKWh},
	}
	for _, f := range fields {
		if f.v == nil {
			return domain.PlanRequest{}, errors.New(f.name + " is required")
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			return domain.PlanRequest{}, errors.New(f.name + " must be a finite number")
		}
	}

	out := domain.PlanRequest{
		Origin:             domain.GeoPoint{Lat: *req.OriginLat, Lng: *req.OriginLng},
		Destination:        domain.GeoPoint{Lat: *req.DestinationLat, Lng: *req.DestinationLng},
		BatteryRangeKm:     *req.BatteryRangeKm,
		BatteryCapacityKWh: *req.BatteryCapacityKWh,
	}

	if err := out.Validate(); err != nil {
		return domain.PlanRequest{}, err
	}

	return out, nil
}
