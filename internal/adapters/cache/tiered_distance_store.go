package cache

import (
	"context"
	"errors"

	"charging-route-service/internal/ports"
)

// TieredDistanceStore reads the local tier first and falls through to the
// shared tier, backfilling local on a shared hit. Writes go to both.
type TieredDistanceStore struct {
	local  ports.DistanceStore
	shared ports.DistanceStore
}

func NewTieredDistanceStore(local, shared ports.DistanceStore) *TieredDistanceStore {
	return &TieredDistanceStore{local: local, shared: shared}
}

func (t *TieredDistanceStore) Get(ctx context.Context, key string) (float64, bool, error) {
	km, ok, err := t.local.Get(ctx, key)
	if err == nil && ok {
		return km, true, nil
	}
	if t.shared == nil {
		return 0, false, err
	}

	km, ok, sharedErr := t.shared.Get(ctx, key)
	if sharedErr != nil || !ok {
		return 0, false, errors.Join(err, sharedErr)
	}

	_ = t.local.Put(ctx, key, km)
	return km, true, nil
}

func (t *TieredDistanceStore) Put(ctx context.Context, key string, km float64) error {
	err := t.local.Put(ctx, key, km)
	if t.shared != nil {
		err = errors.Join(err, t.shared.Put(ctx, key, km))
	}
	return err
}
