package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestDistributedLock_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	a := NewDistributedLock(client, "lock:migrate", time.Minute)
	b := NewDistributedLock(client, "lock:migrate", time.Minute)

	ok, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, b.Release(ctx), ErrLockNotHeld)
	require.NoError(t, a.Release(ctx))

	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDistributedLock_AcquireGivesUpWithContext(t *testing.T) {
	client, _ := newTestClient(t)

	holder := NewDistributedLock(client, "lock:x", time.Minute)
	ok, err := holder.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	waiter := NewDistributedLock(client, "lock:x", time.Minute)
	waiter.retryWait = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waiter.Acquire(ctx), ErrLockNotAcquired)
}

func TestDistributedLock_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	a := NewDistributedLock(client, "lock:ttl", time.Second)
	ok, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	b := NewDistributedLock(client, "lock:ttl", time.Second)
	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDistributedLock_WithLock(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	l := NewDistributedLock(client, "lock:run", time.Minute)

	ran := false
	require.NoError(t, l.WithLock(ctx, func(context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:run"))
		return nil
	}))
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:run"))

	boom := errors.New("boom")
	assert.ErrorIs(t, l.WithLock(ctx, func(context.Context) error { return boom }), boom)
	assert.False(t, mr.Exists("lock:run"))
}
