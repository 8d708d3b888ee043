package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredDistanceStore_BackfillsLocal(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	shared := NewRedisDistanceStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0, zerolog.Nop())
	defer shared.Close()

	local := NewMemoryDistanceStore(10, 0)
	tiered := NewTieredDistanceStore(local, shared)

	require.NoError(t, shared.Put(ctx, "k", 42))
	assert.Equal(t, 0, local.Len())

	km, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.0, km)
	assert.Equal(t, 1, local.Len())

	// local hit no longer needs redis
	mr.Close()
	km, ok, err = tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.0, km)
}

func TestTieredDistanceStore_WritesBothTiers(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	shared := NewRedisDistanceStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0, zerolog.Nop())
	defer shared.Close()

	local := NewMemoryDistanceStore(10, 0)
	tiered := NewTieredDistanceStore(local, shared)

	require.NoError(t, tiered.Put(ctx, "k", 7))

	_, ok, _ := local.Get(ctx, "k")
	assert.True(t, ok)
	assert.True(t, mr.Exists(defaultKeyPrefix+"k"))
}

func TestTieredDistanceStore_LocalOnly(t *testing.T) {
	ctx := context.Background()
	tiered := NewTieredDistanceStore(NewMemoryDistanceStore(10, 0), nil)

	_, ok, err := tiered.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tiered.Put(ctx, "k", 1))
	km, ok, err := tiered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.0, km)
}
