package repository

import (
	"context"
	"testing"
	"time"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(token string) model.Session {
	return model.Session{
		Token:     token,
		User:      &model.User{ID: 3, Username: "ann", Email: "ann@example.com", Role: model.RoleEmployee},
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func nextEvent(t *testing.T, events <-chan model.SessionEvent) model.SessionEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
	}
	return model.SessionEvent{}
}

// runStoreContract checks the behaviour every SessionStore must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) SessionStore) {
	t.Run("save then load", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		want := sampleSession("tok-1")

		require.NoError(t, store.Save(ctx, "sid-a", want))
		got, err := store.Load(ctx, "sid-a")

		require.NoError(t, err)
		assert.Equal(t, want.Token, got.Token)
		assert.Equal(t, *want.User, *got.User)
		assert.True(t, got.ExpiresAt.Equal(want.ExpiresAt))

		other, err := store.Load(ctx, "sid-b")
		require.NoError(t, err)
		assert.True(t, other.Empty())
	})

	t.Run("clear then load", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Save(ctx, "sid-a", sampleSession("tok-1")))

		require.NoError(t, store.Clear(ctx, "sid-a"))
		require.NoError(t, store.Clear(ctx, "sid-a"))

		got, err := store.Load(ctx, "sid-a")
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("rejects half sessions", func(t *testing.T) {
		store := newStore(t)
		err := store.Save(context.Background(), "sid-a", model.Session{Token: "only-token"})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("subscribers see saves and clears", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events, err := store.Subscribe(ctx, "sid-a")
		require.NoError(t, err)

		require.NoError(t, store.Save(context.Background(), "sid-b", sampleSession("other")))
		require.NoError(t, store.Save(context.Background(), "sid-a", sampleSession("tok-1")))
		ev := nextEvent(t, events)
		assert.Equal(t, model.SessionSaved, ev.Kind)
		require.NotNil(t, ev.User)
		assert.Equal(t, "ann", ev.User.Username)

		require.NoError(t, store.Clear(context.Background(), "sid-a"))
		ev = nextEvent(t, events)
		assert.Equal(t, model.SessionCleared, ev.Kind)
		assert.Nil(t, ev.User)

		cancel()
		select {
		case _, ok := <-events:
			for ok {
				_, ok = <-events
			}
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})
}

func TestMemorySessionStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) SessionStore { return NewMemorySessionStore() })
}

func TestMemorySessionStore_ExpiryAndSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemorySessionStore(func() time.Time { return now })
	ctx := context.Background()

	short := sampleSession("short")
	short.ExpiresAt = now.Add(time.Minute)
	long := sampleSession("long")
	long.ExpiresAt = now.Add(time.Hour)
	require.NoError(t, store.Save(ctx, "short", short))
	require.NoError(t, store.Save(ctx, "long", long))

	removed, err := store.Sweep(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	now = now.Add(2 * time.Hour)
	got, err := store.Load(ctx, "long")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestMemorySessionStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "sid", sampleSession("tok")))

	got, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	got.User.Role = model.RoleAdmin

	again, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, again.User.Role)
}

func TestScopedSession(t *testing.T) {
	store := NewMemorySessionStore()
	a, b := Scope(store, "a"), Scope(store, "b")
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, sampleSession("tok-a")))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-a", got.Token)
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, "a", a.SID())
}

func TestSubscriberSet(t *testing.T) {
	set := newSubscriberSet()
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	defer cancelB()

	a := set.add(ctxA, "key-1")
	b := set.add(ctxB, "key-1")
	other := set.add(ctxB, "key-2")
	assert.True(t, set.has("key-1"))
	assert.False(t, set.has("key-3"))

	set.publish("key-1", model.SessionEvent{Kind: model.SessionSaved})
	assert.Equal(t, model.SessionSaved, nextEvent(t, a).Kind)
	assert.Equal(t, model.SessionSaved, nextEvent(t, b).Kind)
	assert.Empty(t, other)

	// A full buffer drops events instead of blocking the publisher.
	for i := 0; i < subscriberBuffer+3; i++ {
		set.publish("key-2", model.SessionEvent{Kind: model.SessionCleared})
	}
	assert.Len(t, other, subscriberBuffer)

	cancelA()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-a:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	set.closeAll()
	_, ok := <-b
	assert.False(t, ok)
	assert.False(t, set.has("key-1"))

	// Cancelling after closeAll must not close the channel twice.
	cancelB()
	time.Sleep(20 * time.Millisecond)
}
