package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"charging-route-service/internal/adapters/routing"
	"charging-route-service/internal/domain"
	"charging-route-service/internal/ports"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("store down")
}

func (failingStore) Put(context.Context, string, float64) error {
	return errors.New("store down")
}

func TestDistanceCache_MemoizesByRoundedKey(t *testing.T) {
	a := domain.GeoPoint{Lat: 52.0, Lng: 13.0}
	b := domain.GeoPoint{Lat: 52.1, Lng: 13.0}

	p := routing.NewStraightLineProvider(80, 1)
	c := newTestCache(newTestDistances(p))

	first := c.Resolve(context.Background(), a, b)
	// differs below the sixth decimal
	second := c.Resolve(context.Background(), a, domain.GeoPoint{Lat: 52.1000001, Lng: 13.0})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.Calls())

	// direction matters
	c.Resolve(context.Background(), b, a)
	assert.Equal(t, 2, p.Calls())
}

func TestDistanceCache_CachesFallback(t *testing.T) {
	a := domain.GeoPoint{Lat: 52.0, Lng: 13.0}
	b := domain.GeoPoint{Lat: 52.1, Lng: 13.0}

	p := routing.NewMockRoutingProvider(nil)
	p.Err = errors.New("unreachable")
	c := newTestCache(newTestDistances(p))

	got := c.Resolve(context.Background(), a, b)
	assert.InDelta(t, domain.GreatCircleKm(a, b), got, 1e-9)

	c.Resolve(context.Background(), a, b)
	assert.Equal(t, 1, p.Calls())
}

func TestDistanceCache_CollapsesConcurrentMisses(t *testing.T) {
	a := domain.GeoPoint{Lat: 52.0, Lng: 13.0}
	b := domain.GeoPoint{Lat: 52.1, Lng: 13.0}

	release := make(chan struct{})
	p := routing.NewMockRoutingProvider(nil)
	p.Func = func(_ context.Context, points []domain.GeoPoint) (ports.Directions, error) {
		<-release
		return ports.Directions{Legs: []ports.DistanceResult{{DistanceMeters: 11_000, DurationSeconds: 500}}}, nil
	}
	c := newTestCache(newTestDistances(p))

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Resolve(context.Background(), a, b)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, p.Calls())
	for _, r := range results {
		assert.Equal(t, 11.0, r)
	}
}

func TestDistanceCache_StoreErrorsDegrade(t *testing.T) {
	a := domain.GeoPoint{Lat: 52.0, Lng: 13.0}
	b := domain.GeoPoint{Lat: 52.1, Lng: 13.0}

	p := routing.NewStraightLineProvider(80, 1)
	c := NewDistanceCache(failingStore{}, newTestDistances(p), nil, zerolog.Nop())

	got := c.Resolve(context.Background(), a, b)
	assert.InDelta(t, domain.GreatCircleKm(a, b), got, 0.001)
	assert.Equal(t, 1, p.Calls())
}
