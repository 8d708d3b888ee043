package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"charging-route-service/internal/api/dto"
	"charging-route-service/internal/domain"
)

var planFlags struct {
	origin      string
	destination string
	rangeKm     float64
	capacityKWh float64
	geometry    bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a single trip and print the result as JSON",
	Example: `  charging-route-service plan --origin 55.6050,13.0038 --destination 59.3293,18.0686 \
    --range 300 --capacity 75`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.origin, "origin", "", "origin as lat,lng")
	f.StringVar(&planFlags.destination, "destination", "", "destination as lat,lng")
	f.Float64Var(&planFlags.rangeKm, "range", 0, "usable battery range in km")
	f.Float64Var(&planFlags.capacityKWh, "capacity", 0, "battery capacity in kWh")
	f.BoolVar(&planFlags.geometry, "geometry", false, "include a GeoJSON rendering of the plan")
	for _, name := range []string{"origin", "destination", "range", "capacity"} {
		_ = planCmd.MarkFlagRequired(name)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	req, err := planRequestFromFlags()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays valid JSON.
	cfg, logger, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.planner.Plan(cmd.Context(), req)

	out := dto.FromPlanResult(res)
	if planFlags.geometry {
		out.Geometry = dto.PlanGeometry(req, res)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func planRequestFromFlags() (domain.PlanRequest, error) {
	origin, err := parseLatLng(planFlags.origin)
	if err != nil {
		return domain.PlanRequest{}, fmt.Errorf("origin: %w", err)
	}
	destination, err := parseLatLng(planFlags.destination)
	if err != nil {
		return domain.PlanRequest{}, fmt.Errorf("destination: %w", err)
	}

	req := domain.PlanRequest{
		Origin:             origin,
		Destination:        destination,
		BatteryRangeKm:     planFlags.rangeKm,
		BatteryCapacityKWh: planFlags.capacityKWh,
	}
	if err := req.Validate(); err != nil {
		return domain.PlanRequest{}, err
	}
	return req, nil
}

// parseLatLng parses "lat,lng" in decimal degrees.
func parseLatLng(s string) (domain.GeoPoint, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.GeoPoint{}, errors.New("expected lat,lng")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return domain.GeoPoint{}, errors.New("coordinates must be finite")
	}

	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}
