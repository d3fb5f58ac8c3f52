//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisCache_Integration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	cache := NewRedisCache(client, WithKeyPrefix("test:"))

	var got summary
	hit, err := cache.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := summary{Clients: 2, Invoices: 5}
	require.NoError(t, cache.Set(ctx, "dashboard", want, time.Minute))

	hit, err = cache.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, "test:dashboard").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Delete(ctx, "dashboard"))
	hit, err = cache.Get(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// Corrupted entries are dropped and reported as a miss
	require.NoError(t, client.Set(ctx, "test:broken", "{not json", time.Minute).Err())
	hit, err = cache.Get(ctx, "broken", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(0), client.Exists(ctx, "test:broken").Val())
}

func TestRedisIdempotencyStore_Integration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	store := NewRedisIdempotencyStore(client, "")

	isNew, err := store.MarkProcessed(ctx, "POST /proforma-invoices:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "POST /proforma-invoices:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "POST /proforma-invoices:k1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "POST /proforma-invoices:k1"))
	processed, err = store.IsProcessed(ctx, "POST /proforma-invoices:k1")
	require.NoError(t, err)
	assert.False(t, processed)
}
