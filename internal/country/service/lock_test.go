package service

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	locker := NewRedisLocker(client, "test:refresh-lock", time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx)
	require.NoError(t, err)

	// second acquire while held must refuse
	_, err = locker.Acquire(ctx)
	require.ErrorIs(t, err, ErrRefreshInProgress)

	release()

	release2, err := locker.Acquire(ctx)
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	locker := NewRedisLocker(client, "test:refresh-lock", time.Second)
	ctx := context.Background()

	_, err = locker.Acquire(ctx)
	require.NoError(t, err)

	// a crashed holder never releases; the TTL must unblock the next one
	m.FastForward(2 * time.Second)

	release, err := locker.Acquire(ctx)
	require.NoError(t, err)
	release()
}
