package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/logging"
	"charging-route-service/internal/platform/obs"
)

const (
	DefaultMaxPowerKW = 50.0
	// Charging window 20% -> 80% state of charge.
	chargeWindowFraction = 0.6
	chargingEfficiency   = 0.85
	// Range after charging to 80%.
	postChargeRangeFraction = 0.8
)

// Connector kinds considered when picking a station's max power.
var knownConnectorKinds = map[string]struct{}{
	"ccs":       {},
	"ccs1":      {},
	"ccs2":      {},
	"ccscombo1": {},
	"ccscombo2": {},
	"chademo":   {},
	"type2":     {},
	"tesla":     {},
	"nacs":      {},
}

func normalizeConnectorKind(t string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, t)
}

// MaxPowerKW returns the highest connector power among known kinds, or
// DefaultMaxPowerKW when the station has none.
func MaxPowerKW(connectors []domain.Connector) float64 {
	best := 0.0
	for _, c := range connectors {
		if _, ok := knownConnectorKinds[normalizeConnectorKind(c.Type)]; !ok {
			continue
		}
		if c.PowerKW > best {
			best = c.PowerKW
		}
	}
	if best <= 0 {
		return DefaultMaxPowerKW
	}
	return best
}

// ChargingMinutes estimates a 20% -> 80% charge at 85% of maxPowerKW.
func ChargingMinutes(capacityKWh, maxPowerKW float64) float64 {
	return (chargeWindowFraction * capacityKWh) / (maxPowerKW * chargingEfficiency) * 60
}

// Scorer ranks a fully annotated station. Higher is better.
type Scorer interface {
	Score(s domain.ScoredStation, capacityKWh float64) float64
}

// EfficiencyScorer weighs detour far above charging time, charge-level fit
// and station size.
type EfficiencyScorer struct{}

func (EfficiencyScorer) Score(s domain.ScoredStation, capacityKWh float64) float64 {
	detour := math.Abs(s.ActualDetourKm)
	battery := s.BatteryRemainingPercentAtStation

	score := 1000.0
	score -= detour * 200
	score -= s.EstimatedChargingTimeMinutes * 0.2
	score -= math.Abs(s.DistanceFromStartKm-0.75*capacityKWh) * 0.5

	if battery > 30 && detour < 3 {
		score += 100
	}
	if battery > 40 && detour < 1 {
		score += 50
	}

	score += float64(s.NumberOfPoints) * 2

	if s.MaxPowerKW > 100 {
		score += 15
	}
	if s.MaxPowerKW > 200 {
		score += 10
	}

	return score
}

type ScorerConfig struct {
	MaxScored      int
	MaxConcurrency int
}

// StationScorer annotates viable stations with the real detour and ranks them.
type StationScorer struct {
	distances *RouteDistanceProvider
	cache     *DistanceCache
	scorer    Scorer
	cfg       ScorerConfig
	logger    zerolog.Logger
}

func NewStationScorer(
	distances *RouteDistanceProvider,
	cache *DistanceCache,
	scorer Scorer,
	cfg ScorerConfig,
	logger zerolog.Logger,
) *StationScorer {
	if scorer == nil {
		scorer = EfficiencyScorer{}
	}
	if cfg.MaxScored < 1 {
		cfg.MaxScored = 10
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &StationScorer{
		distances: distances,
		cache:     cache,
		scorer:    scorer,
		cfg:       cfg,
		logger:    logging.Component(logger, "station-scorer"),
	}
}

type ScoreInput struct {
	Viable      []domain.ViableStation
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	TotalKm     float64
	CapacityKWh float64
}

// Score returns the stations sorted by descending score (ties by id),
// truncated to MaxScored.
func (s *StationScorer) Score(ctx context.Context, in ScoreInput) (_ []domain.ScoredStation, err error) {
	ctx, done := obs.Start(ctx, "stations.Score")
	defer done(&err)

	out := make([]domain.ScoredStation, len(in.Viable))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)

	for i, v := range in.Viable {
		i, v := i, v
		g.Go(func() (err error) {
			defer recoverTo(&err, "score station "+v.ID)

			out[i] = s.scoreOne(gctx, v, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EfficiencyScore != out[j].EfficiencyScore {
			return out[i].EfficiencyScore > out[j].EfficiencyScore
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > s.cfg.MaxScored {
		out = out[:s.cfg.MaxScored]
	}
	return out, nil
}

func (s *StationScorer) scoreOne(ctx context.Context, v domain.ViableStation, in ScoreInput) domain.ScoredStation {
	st := domain.ScoredStation{ViableStation: v}

	km, sec, err := s.distances.Via(ctx, in.Origin, v.Coordinates, in.Destination)
	if err == nil {
		st.TotalDistanceViaStationKm = km
		st.TotalDurationViaStationMin = sec / 60
		st.RoutingSuccess = true
	} else {
		toEnd := s.cache.Resolve(ctx, v.Coordinates, in.Destination)
		st.TotalDistanceViaStationKm = v.DistanceFromStartKm + toEnd
		st.TotalDurationViaStationMin = st.TotalDistanceViaStationKm / FallbackSpeedKmh * 60
		s.logger.Debug().Err(err).Str("station", v.ID).Msg("detour routing failed, using cached legs")
	}
	st.ActualDetourKm = st.TotalDistanceViaStationKm - in.TotalKm

	st.MaxPowerKW = MaxPowerKW(v.Connectors)
	st.EstimatedChargingTimeMinutes = ChargingMinutes(in.CapacityKWh, st.MaxPowerKW)
	st.BatteryPercentAtArrival = 100 * (1 - v.DistanceFromStartKm/in.CapacityKWh)
	st.RemainingRangeAtDestinationKm = postChargeRangeFraction*in.CapacityKWh - v.DistanceToEndKm

	st.EfficiencyScore = s.scorer.Score(st, in.CapacityKWh)
	return st
}
