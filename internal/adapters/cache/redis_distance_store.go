package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"charging-route-service/internal/platform/logging"
)

const defaultKeyPrefix = "evr:distance:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration

	// Stop using redis after the first failed command.
	DisableOnError bool
}

// RedisDistanceStore shares resolved distances between service instances.
// Failures never reach the planner: once disabled the store behaves as an
// always-empty cache.
type RedisDistanceStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger

	disableOnError bool

	mu       sync.RWMutex
	disabled bool
}

// NewRedisDistanceStore connects to redis. An unreachable server yields a
// disabled store, not an error.
func NewRedisDistanceStore(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) *RedisDistanceStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	s := NewRedisDistanceStoreFromClient(client, cfg.TTL, logger)
	s.disableOnError = cfg.DisableOnError

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		s.logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, shared distance cache disabled")
		s.disabled = true
		return s
	}

	s.logger.Info().Str("addr", cfg.Addr).Msg("redis distance cache initialized")
	return s
}

func NewRedisDistanceStoreFromClient(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisDistanceStore {
	return &RedisDistanceStore{
		client: client,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
		logger: logging.Component(logger, "redis-cache"),
	}
}

func (s *RedisDistanceStore) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disabled && s.client != nil
}

func (s *RedisDistanceStore) Get(ctx context.Context, key string) (float64, bool, error) {
	if !s.Available() {
		return 0, false, nil
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		s.handleError(err, "get")
		return 0, false, fmt.Errorf("redis distance get: %w", err)
	}

	km, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("discarding malformed cached distance")
		return 0, false, nil
	}

	return km, true, nil
}

func (s *RedisDistanceStore) Put(ctx context.Context, key string, km float64) error {
	if !s.Available() {
		return nil
	}

	val := strconv.FormatFloat(km, 'g', -1, 64)
	if err := s.client.Set(ctx, s.prefix+key, val, s.ttl).Err(); err != nil {
		s.handleError(err, "set")
		return fmt.Errorf("redis distance set: %w", err)
	}

	return nil
}

func (s *RedisDistanceStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *RedisDistanceStore) handleError(err error, op string) {
	s.logger.Debug().Err(err).Str("operation", op).Msg("redis operation failed")

	if !s.disableOnError {
		return
	}

	s.mu.Lock()
	already := s.disabled
	s.disabled = true
	s.mu.Unlock()

	if !already {
		s.logger.Warn().Msg("disabling shared distance cache after redis error")
	}
}
