package redis_test

import (
	"context"
	"testing"
	"time"

	seatcache "ms-excursions/internal/inventory/redis"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSeatCacheIntegration runs the cache against a real Redis container.
func TestSeatCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	cache := seatcache.NewSeatCache(client, 30*time.Second)

	slotUID := "boat:1:2026-06-01:10:00"

	// Cold cache reports a miss, not an error.
	_, ok, err := cache.Get(ctx, slotUID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, slotUID, 7))

	seats, ok, err := cache.Get(ctx, slotUID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, seats)

	// Invalidation drops the key; the next read misses again.
	require.NoError(t, cache.Invalidate(ctx, slotUID))
	_, ok, err = cache.Get(ctx, slotUID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A count written under one slot never bleeds into another.
	require.NoError(t, cache.Set(ctx, "boat:2:2026-06-01:14:00", 12))
	_, ok, err = cache.Get(ctx, slotUID)
	require.NoError(t, err)
	assert.False(t, ok)
}
