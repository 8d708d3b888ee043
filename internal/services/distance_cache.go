package services

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"charging-route-service/internal/domain"
	"charging-route-service/internal/platform/logging"
	"charging-route-service/internal/platform/metrics"
	"charging-route-service/internal/platform/obs"
	"charging-route-service/internal/ports"
)

// DistanceCache memoizes point-to-point distances in a DistanceStore.
// Concurrent misses for the same pair share one provider call. Values are
// idempotent per key, so racing writers store the same number.
type DistanceCache struct {
	store     ports.DistanceStore
	distances *RouteDistanceProvider
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	group singleflight.Group
}

func NewDistanceCache(
	store ports.DistanceStore,
	distances *RouteDistanceProvider,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *DistanceCache {
	return &DistanceCache{
		store:     store,
		distances: distances,
		metrics:   m,
		logger:    logging.Component(logger, "distance-cache"),
	}
}

func pairKey(a, b domain.GeoPoint) string {
	return a.Key() + "|" + b.Key()
}

// Resolve returns the distance a -> b in kilometers. It never fails; store
// errors degrade to a miss and provider errors to a great-circle value.
func (c *DistanceCache) Resolve(ctx context.Context, a, b domain.GeoPoint) float64 {
	key := pairKey(a, b)

	km, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("distance cache read failed")
	}
	if err == nil && ok {
		c.metrics.CacheLookup(true)
		return km
	}
	c.metrics.CacheLookup(false)

	v, _, _ := c.group.Do(key, func() (any, error) {
		sctx, done := obs.Start(ctx, "distance.Resolve")
		defer done(nil)

		km, _ := c.distances.LegKm(sctx, a, b)
		if err := c.store.Put(sctx, key, km); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("distance cache write failed")
		}
		return km, nil
	})

	return v.(float64)
}
