package repositories

import (
	"os"
	"path/filepath"
	"testing"
)

const seedJSON = `[
  {
    "id": "st-b",
    "name": "Highway Hub",
    "lat": 52.10, "lng": 13.10,
    "status": "Operational",
    "number_of_points": 6,
    "connectors": [
      {"type": "CCS", "power_kw": 150, "quantity": 4},
      {"type": "Type 2", "power_kw": 22, "quantity": 2}
    ]
  },
  {
    "id": "st-a",
    "name": "Town Square",
    "lat": 52.05, "lng": 13.05,
    "status": "",
    "number_of_points": 2
  },
  {
    "id": "st-far",
    "name": "Far Away",
    "lat": 48.0, "lng": 11.0,
    "status": "Planned",
    "number_of_points": 1,
    "connectors": [{"type": "CHAdeMO", "power_kw": 50, "quantity": 1}]
  }
]`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stations.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return p
}
