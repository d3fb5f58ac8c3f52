package cache

import (
	"errors"
	"testing"

	"github.com/gcs/crm/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoresFactory_DisabledUsesInMemory(t *testing.T) {
	f := NewStoresFactory(config.RedisConfig{Enabled: false})

	stores, err := f.Create()
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &InMemoryCache{}, stores.Cache)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.Nil(t, stores.Redis())
}

func TestStoresFactory_FallbackWhenUnavailable(t *testing.T) {
	f := NewStoresFactory(config.RedisConfig{Enabled: true, Host: "localhost", Port: 6379})
	f.connect = func(config.RedisConfig) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}

	stores, err := f.Create()
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &InMemoryCache{}, stores.Cache)
}

func TestStoresFactory_NoFallback(t *testing.T) {
	f := NewStoresFactory(config.RedisConfig{Enabled: true}, WithInMemoryFallback(false))
	f.connect = func(config.RedisConfig) (*redis.Client, error) {
		return nil, errors.New("connection refused")
	}

	stores, err := f.Create()
	assert.Error(t, err)
	assert.Nil(t, stores)
	assert.Contains(t, err.Error(), "connection refused")
}
