//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/marcelsud/pixbridge/cache/redis"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer holds the Redis testcontainer and connection details
type RedisContainer struct {
	Container *testcontainersredis.RedisContainer
	Addr      string
}

// SetupRedisContainer creates and starts a Redis testcontainer
func SetupRedisContainer(t *testing.T, ctx context.Context) (*RedisContainer, func()) {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	if len(addr) > 8 && addr[:8] == "redis://" {
		addr = addr[8:]
	}

	cleanup := func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return &RedisContainer{Container: redisContainer, Addr: addr}, cleanup
}

// CreateTestBackend creates a Redis backend connected to the test container
func CreateTestBackend(t *testing.T, addr string) *redis.Backend {
	t.Helper()

	backend, err := redis.NewBackend(addr, "", 0)
	require.NoError(t, err, "failed to create Redis backend")

	return backend
}

// GetKeyTTL returns the remaining TTL of a Redis key
func GetKeyTTL(t *testing.T, backend *redis.Backend, key string) time.Duration {
	t.Helper()

	ttl, err := backend.Client().TTL(context.Background(), key).Result()
	require.NoError(t, err)

	return ttl
}
