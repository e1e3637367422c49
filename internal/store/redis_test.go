package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Integration tests start a real Redis through testcontainers-go.
//
//	GO_TEST_INTEGRATION=1 go test ./internal/store -run Redis -v -count=1
func startRedis(t *testing.T) *RedisShownSet {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "docker.io/redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	s, err := NewRedisShownSet(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "test:shown:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisShownSet_DayScoped(t *testing.T) {
	s := startRedis(t)
	ctx := context.Background()

	added, err := s.Add(ctx, "2026-10-18", "t3_a")
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Add(ctx, "2026-10-18", "t3_a")
	require.NoError(t, err)
	require.False(t, added)

	snap, err := s.Snapshot(ctx, "2026-10-18")
	require.NoError(t, err)
	require.Contains(t, snap, "t3_a")

	snap, err = s.Snapshot(ctx, "2026-10-19")
	require.NoError(t, err)
	require.Empty(t, snap)
}

func TestNewRedisShownSet_BadURL(t *testing.T) {
	_, err := NewRedisShownSet(context.Background(), "://nope", "")
	require.Error(t, err)
}
