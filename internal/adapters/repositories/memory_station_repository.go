package repositories

import (
	"context"
	"sort"

	"charging-route-service/internal/domain"
)

// In-memory StationRepository, loaded once and read-only afterwards.
type MemoryStationRepository struct {
	stations []domain.Station
}

func NewMemoryStationRepository(stations []domain.Station) *MemoryStationRepository {
	cp := make([]domain.Station, len(stations))
	copy(cp, stations)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return &MemoryStationRepository{stations: cp}
}

func (m *MemoryStationRepository) StationsInBounds(_ context.Context, box domain.BoundingBox) ([]domain.Station, error) {
	out := make([]domain.Station, 0, 16)
	for _, s := range m.stations {
		if box.Contains(s.Coordinates) {
			out = append(out, s)
		}
	}
	return out, nil
}
