package domain

import "strings"

const StatusOperational = "operational"

// A single connector type offered by a station.
type Connector struct {
	Type     string
	PowerKW  float64
	Quantity int
}

// Represents a persisted charging station as returned by the station store.
// An empty Status means the store did not report one.
type Station struct {
	ID             string
	Name           string
	Coordinates    GeoPoint
	Status         string
	NumberOfPoints int
	Connectors     []Connector
}

// IsOperational treats a missing status as operational.
func (s Station) IsOperational() bool {
	st := strings.TrimSpace(s.Status)
	return st == "" || strings.EqualFold(st, StatusOperational)
}
