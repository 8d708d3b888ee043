package ports

import "context"

// Storage backend for resolved point-to-point distances in kilometers.
// Keys are normalized by the caller.
type DistanceStore interface {
	Get(ctx context.Context, key string) (km float64, ok bool, err error)
	Put(ctx context.Context, key string, km float64) error
}
