package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestNewLocker_Defaults(t *testing.T) {
	l := NewLocker(nil, "", 0)
	assert.Equal(t, "lock:", l.keyPrefix)
	assert.Equal(t, time.Hour, l.ttl)
}

func TestIntegrationLocker(t *testing.T) {
	client := getTestClient(t)
	ctx := context.Background()
	locker := NewLocker(client, "clover-test:", time.Minute)

	release, err := locker.Lock(ctx, "run")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "run")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, release(ctx))
	assert.ErrorIs(t, release(ctx), ErrLockNotHeld)

	release, err = locker.Lock(ctx, "run")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestIntegrationLocker_KeepAlive(t *testing.T) {
	client := getTestClient(t)
	ctx := context.Background()
	locker := NewLocker(client, "clover-test:", 300*time.Millisecond)

	lock, err := locker.Acquire(ctx, "keepalive")
	require.NoError(t, err)

	time.Sleep(time.Second)

	ttl, err := client.rdb.PTTL(ctx, "clover-test:keepalive").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, lock.Release(ctx))
	exists, err := client.rdb.Exists(ctx, "clover-test:keepalive").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
