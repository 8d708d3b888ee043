package dto

import "charging-route-service/internal/domain"

type ConnectorResponse struct {
	Type     string  `json:"type"`
	PowerKW  float64 `json:"power_kw"`
	Quantity int     `json:"quantity"`
}

type StationResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Lat            float64             `json:"lat"`
	Lng            float64             `json:"lng"`
	Status         string              `json:"status,omitempty"`
	NumberOfPoints int                 `json:"number_of_points"`
	Connectors     []ConnectorResponse `json:"connectors"`
}

type ListStationsResponse struct {
	Stations []StationResponse `json:"stations"`
}

func FromStation(s domain.Station) StationResponse {
	out := StationResponse{
		ID:             s.ID,
		Name:           s.Name,
		Lat:            s.Coordinates.Lat,
		Lng:            s.Coordinates.Lng,
		Status:         s.Status,
		NumberOfPoints: s.NumberOfPoints,
		Connectors:     make([]ConnectorResponse, 0, len(s.Connectors)),
	}
	for _, c := range s.Connectors {
		out.Connectors = append(out.Connectors, ConnectorResponse{
			Type:     c.Type,
			PowerKW:  c.PowerKW,
			Quantity: c.Quantity,
		})
	}
	return out
}
