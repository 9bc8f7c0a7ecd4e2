package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/redis"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStore_RealRedis runs against a real server; it needs Docker and is
// skipped in -short mode.
func TestStore_RealRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s := redis.New(redis.Options{Addr: endpoint, Timeout: 2 * time.Second})
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Put(ctx, "jti-short", "alice", 1500*time.Millisecond))
	require.NoError(t, s.Put(ctx, "jti-long", "bob", time.Hour))

	ok, err := s.Exists(ctx, "jti-short")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		ok, err := s.Exists(ctx, "jti-short")
		return err == nil && !ok
	}, 10*time.Second, 250*time.Millisecond)

	deleted, err := s.Delete(ctx, "jti-long")
	require.NoError(t, err)
	require.True(t, deleted)
}
