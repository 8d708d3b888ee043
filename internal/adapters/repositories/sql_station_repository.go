package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/obs"
)

// SQL-backed implementation of the StationRepository port. The same queries
// run on SQLite and Postgres.
type SQLStationRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLStationRepository(db *sql.DB, d Dialect) *SQLStationRepository {
	return &SQLStationRepository{DB: db, Dialect: d}
}

// Return every station inside box with its connectors, ordered by id.
func (s *SQLStationRepository) StationsInBounds(
	ctx context.Context,
	box domain.BoundingBox,
) (_ []domain.Station, err error) {
	defer obs.Time(ctx, "stations.InBounds")(&err)

	if s.DB == nil {
		return nil, errors.New("sql station repository: DB is nil")
	}

	query := s.Dialect.rebind(`
	SELECT
		s.id,
		s.name,
		s.lat,
		s.lng,
		s.status,
		s.number_of_points,
		c.type,
		c.power_kw,
		c.quantity
	FROM stations s
	LEFT JOIN station_connectors c ON c.station_id = s.id
	WHERE s.lat BETWEEN ? AND ?
		AND s.lng BETWEEN ? AND ?
	ORDER BY s.id, c.position;
	`)

	rows, err := s.DB.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, fmt.Errorf("stations in bounds: query stations table: %w", err)
	}
	defer rows.Close()

	stations := make([]domain.Station, 0, 64)
	for rows.Next() {
		var (
			st     domain.Station
			cType  sql.NullString
			cPower sql.NullFloat64
			cQty   sql.NullInt64
		)
		if err := rows.Scan(
			&st.ID, &st.Name, &st.Coordinates.Lat, &st.Coordinates.Lng, &st.Status, &st.NumberOfPoints,
			&cType, &cPower, &cQty,
		); err != nil {
			return nil, fmt.Errorf("stations in bounds: scan row: %w", err)
		}

		// rows of one station are adjacent because of the ORDER BY
		if n := len(stations); n == 0 || stations[n-1].ID != st.ID {
			stations = append(stations, st)
		}
		if cType.Valid {
			last := &stations[len(stations)-1]
			last.Connectors = append(last.Connectors, domain.Connector{
				Type:     cType.String,
				PowerKW:  cPower.Float64,
				Quantity: int(cQty.Int64),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stations in bounds: row iteration: %w", err)
	}

	return stations, nil
}
