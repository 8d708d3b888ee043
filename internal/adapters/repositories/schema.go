package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"charging-route-service/internal/domain"
)

// Dialect covers the few SQL differences between the supported backends.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "pgx":
		return DialectPostgres, nil
	}
	return 0, fmt.Errorf("unsupported station store driver %q", driver)
}

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(q string) string {
	if d != DialectPostgres {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) floatType() string {
	if d == DialectPostgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

// InitSchema creates the station tables when missing.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ft := d.floatType()

	createStationsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		lat %[1]s NOT NULL,
		lng %[1]s NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		number_of_points INTEGER NOT NULL DEFAULT 0
	);
	`, ft)

	createConnectorsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS station_connectors (
		station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		power_kw %s NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (station_id, position)
	);
	`, ft)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stations_lat_lng
	ON stations(lat, lng);
	`

	statements := []string{
		createStationsQuery,
		createConnectorsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ConnectorSeed struct {
	Type     string  `json:"type"`
	PowerKW  float64 `json:"power_kw"`
	Quantity int     `json:"quantity"`
}

type StationSeed struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`
	Status         string          `json:"status"`
	NumberOfPoints int             `json:"number_of_points"`
	Connectors     []ConnectorSeed `json:"connectors"`
}

// LoadStationSeeds reads and validates a JSON array of stations.
func LoadStationSeeds(jsonPath string) ([]domain.Station, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load stations: read %q: %w", jsonPath, err)
	}

	var data []StationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load stations: parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(data))
	out := make([]domain.Station, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("load stations: item at index %d: id cannot be empty", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("load stations: duplicate id %q at index %d", id, i+1)
		}
		seen[id] = struct{}{}

		pt := domain.GeoPoint{Lat: item.Lat, Lng: item.Lng}
		if !pt.Valid() {
			return nil, fmt.Errorf("load stations: station %q: invalid coordinates %s", id, pt)
		}

		st := domain.Station{
			ID:             id,
			Name:           strings.TrimSpace(item.Name),
			Coordinates:    pt,
			Status:         strings.TrimSpace(item.Status),
			NumberOfPoints: item.NumberOfPoints,
		}
		for _, c := range item.Connectors {
			st.Connectors = append(st.Connectors, domain.Connector{
				Type:     strings.TrimSpace(c.Type),
				PowerKW:  c.PowerKW,
				Quantity: c.Quantity,
			})
		}
		out = append(out, st)
	}

	return out, nil
}

// SeedFromJSON upserts the stations of a JSON file. Connectors of a seeded
// station are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, d Dialect, jsonPath string) (int, error) {
	stations, err := LoadStationSeeds(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed stations: %w", err)
	}
	if err := UpsertStations(ctx, db, d, stations); err != nil {
		return 0, err
	}
	return len(stations), nil
}

func UpsertStations(ctx context.Context, db *sql.DB, d Dialect, stations []domain.Station) error {
	if db == nil {
		return errors.New("seed stations: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed stations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsertStation, err := tx.PrepareContext(ctx, d.rebind(`
	INSERT INTO stations (
		id,
		name,
		lat,
		lng,
		status,
		number_of_points
	)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = excluded.name,
		lat = excluded.lat,
		lng = excluded.lng,
		status = excluded.status,
		number_of_points = excluded.number_of_points;
	`))
	if err != nil {
		return fmt.Errorf("seed stations: prepare station upsert: %w", err)
	}
	defer upsertStation.Close()

	clearConnectors, err := tx.PrepareContext(ctx, d.rebind(`DELETE FROM station_connectors WHERE station_id = ?;`))
	if err != nil {
		return fmt.Errorf("seed stations: prepare connector delete: %w", err)
	}
	defer clearConnectors.Close()

	insertConnector, err := tx.PrepareContext(ctx, d.rebind(`
	INSERT INTO station_connectors (
		station_id,
		position,
		type,
		power_kw,
		quantity
	)
	VALUES (?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("seed stations: prepare connector insert: %w", err)
	}
	defer insertConnector.Close()

	for _, s := range stations {
		if _, err := upsertStation.ExecContext(ctx,
			s.ID, s.Name, s.Coordinates.Lat, s.Coordinates.Lng, s.Status, s.NumberOfPoints,
		); err != nil {
			return fmt.Errorf("seed stations: upsert id=%q: %w", s.ID, err)
		}
		if _, err := clearConnectors.ExecContext(ctx, s.ID); err != nil {
			return fmt.Errorf("seed stations: clear connectors id=%q: %w", s.ID, err)
		}
		for pos, c := range s.Connectors {
			if _, err := insertConnector.ExecContext(ctx, s.ID, pos, c.Type, c.PowerKW, c.Quantity); err != nil {
				return fmt.Errorf("seed stations: insert connector id=%q position=%d: %w", s.ID, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed stations: commit tx: %w", err)
	}

	return nil
}
