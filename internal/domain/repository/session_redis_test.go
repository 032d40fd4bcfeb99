package repository

import (
	"context"
	"testing"
	"time"

	"leave_portal/internal/common/security"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisSessionStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) SessionStore {
		_, rdb := newMiniredis(t)
		return NewRedisSessionStore(rdb)
	})
}

func TestRedisSessionStore_HashLayoutAndTTL(t *testing.T) {
	mr, rdb := newMiniredis(t)
	store := NewRedisSessionStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-a", sampleSession("tok-1")))

	key := redisSessionPrefix + security.SessionKey("sid-a")
	assert.True(t, mr.Exists(key))
	assert.False(t, mr.Exists(redisSessionPrefix+"sid-a"))
	assert.Equal(t, "tok-1", mr.HGet(key, "token"))
	assert.Contains(t, mr.HGet(key, "loggedInUser"), `"username":"ann"`)
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	mr.FastForward(2 * time.Hour)
	got, err := store.Load(ctx, "sid-a")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestRedisSessionStore_ExpiredByClock(t *testing.T) {
	_, rdb := newMiniredis(t)
	store := NewRedisSessionStore(rdb).(*redisSessionStore)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sid-a", sampleSession("tok-1")))

	store.now = func() time.Time { return time.Now().Add(3 * time.Hour) }

	got, err := store.Load(ctx, "sid-a")
	require.NoError(t, err)
	assert.True(t, got.Empty())

	removed, err := store.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
