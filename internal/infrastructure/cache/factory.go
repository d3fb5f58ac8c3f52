package cache

import (
	"fmt"

	"github.com/gcs/crm/internal/domain/shared"
	"github.com/gcs/crm/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the response cache and the idempotency store built from configuration
type Stores struct {
	Cache       Cache
	Idempotency shared.IdempotencyStore
	client      *redis.Client
}

// Close releases the idempotency store and the Redis connection
func (s *Stores) Close() error {
	return s.Idempotency.Close()
}

// Redis returns the Redis client, or nil when running on the in-memory fallback
func (s *Stores) Redis() *redis.Client {
	return s.client
}

// StoresFactory creates stores based on configuration
type StoresFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(config.RedisConfig) (*redis.Client, error)
}

// StoresFactoryOption is a functional option for configuring the factory
type StoresFactoryOption func(*StoresFactory)

// WithLogger sets the logger for the factory and the stores it creates
func WithLogger(logger *zap.Logger) StoresFactoryOption {
	return func(f *StoresFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoresFactoryOption {
	return func(f *StoresFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoresFactory creates a new factory
func NewStoresFactory(cfg config.RedisConfig, opts ...StoresFactoryOption) *StoresFactory {
	f := &StoresFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect:               NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemory creates process local stores.
// They do not share state across instances.
func (f *StoresFactory) CreateInMemory() *Stores {
	return &Stores{
		Cache:       NewInMemoryCache(),
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}

// Create returns Redis backed stores when Redis is enabled and reachable.
// Otherwise it falls back to in-memory stores if allowed.
func (f *StoresFactory) Create() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory cache and idempotency store")
		return f.CreateInMemory(), nil
	}

	client, err := f.connect(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis cache and idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Cache:       NewRedisCache(client, WithCacheLogger(f.logger.Named("cache"))),
			Idempotency: NewRedisIdempotencyStore(client, ""),
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory cache and idempotency store",
		zap.Error(err),
	)
	return f.CreateInMemory(), nil
}
