package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tradecomply/backend/internal/infrastructure/cache"
	"github.com/tradecomply/backend/internal/infrastructure/config"
)

var (
	sharedRedis       testcontainers.Container
	sharedRedisConfig config.RedisConfig
)

// NewSharedTestRedis returns a client on the package-wide Redis container,
// flushed before returning.
func NewSharedTestRedis(t *testing.T) (*redis.Client, config.RedisConfig) {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedRedis == nil {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor: wait.ForLog("Ready to accept connections").
					WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		require.NoError(t, err, "Failed to start Redis container")

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "6379/tcp")
		require.NoError(t, err)
		portNum, err := strconv.Atoi(port.Port())
		require.NoError(t, err)

		sharedRedis = container
		sharedRedisConfig = config.RedisConfig{Host: host, Port: portNum}
	}

	client, err := cache.NewRedisClient(ctx, sharedRedisConfig)
	require.NoError(t, err)
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, sharedRedisConfig
}
