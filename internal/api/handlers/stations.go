package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"charging-route-service/internal/api/dto"
	"charging-route-service/internal/domain"
	"charging-route-service/internal/ports"
)

type StationHandler struct {
	Repo ports.StationRepository
}

// List returns the stations inside the min_lat/min_lng/max_lat/max_lng box.
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var vals [4]float64
	for i, name := range []string{"min_lat", "min_lng", "max_lat", "max_lng"} {
		raw := q.Get(name)
		if raw == "" {
			writeError(w, r, http.StatusBadRequest, name+" is required")
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, name+" must be a number")
			return
		}
		vals[i] = v
	}

	box := domain.BoundingBox{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}
	if !box.Valid() {
		writeError(w, r, http.StatusBadRequest, "invalid bounding box")
		return
	}

	stations, err := h.Repo.StationsInBounds(r.Context(), box)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list stations failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListStationsResponse{Stations: make([]dto.StationResponse, 0, len(stations))}
	for _, s := range stations {
		res.Stations = append(res.Stations, dto.FromStation(s))
	}

	writeJSON(w, r, http.StatusOK, res)
}
