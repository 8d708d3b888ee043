package ports

import (
	"context"

	"charging-route-service/internal/domain"
)

// Port: read-only boundary over persisted charging stations.
type StationRepository interface {
	// Return all stations inside the box, ordered by id.
	StationsInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Station, error)
}
