package mappingstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(channel string) Key {
	return Key{
		ScopeID:      "team-1",
		ChannelID:    channel,
		RepoFullName: "acme/app",
		EntityType:   EntityPullRequest,
		EntityID:     "42",
	}
}

func TestMemoryStoreUpsertIsIdempotentPerIdentity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := testKey("chan-1")

	require.NoError(t, store.Upsert(ctx, key, Record{ChatMessageID: "msg-1"}, 0))
	require.NoError(t, store.Upsert(ctx, key, Record{ChatMessageID: "msg-2"}, 0))

	assert.Equal(t, 1, store.Len(), "upsert must replace, never duplicate")

	m, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "msg-2", m.ChatMessageID)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	expired := testKey("chan-expired")
	live := testKey("chan-live")
	require.NoError(t, store.Upsert(ctx, expired, Record{ChatMessageID: "old"}, 30))
	require.NoError(t, store.Upsert(ctx, live, Record{ChatMessageID: "fresh"}, 30))

	// Move past the expired row's lifetime, then refresh only the live one.
	now = now.Add(29 * 24 * time.Hour)
	require.NoError(t, store.Upsert(ctx, live, Record{ChatMessageID: "fresh"}, 30))
	now = now.Add(2 * 24 * time.Hour)

	t.Run("expired row excluded from Get before any sweep", func(t *testing.T) {
		m, err := store.Get(ctx, expired)
		require.NoError(t, err)
		assert.Nil(t, m)

		m, err = store.Get(ctx, live)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "fresh", m.ChatMessageID)
	})

	t.Run("sweep removes only expired rows", func(t *testing.T) {
		count, err := store.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, 1, store.Len())
	})
}

func TestMemoryStoreSlidingExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	key := testKey("chan-1")
	require.NoError(t, store.Upsert(ctx, key, Record{ChatMessageID: "msg"}, 30))

	first, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, first)

	now = now.Add(10 * 24 * time.Hour)
	require.NoError(t, store.Upsert(ctx, key, Record{ChatMessageID: "msg"}, 30))

	second, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.True(t, second.ExpiresAt.After(first.ExpiresAt), "expiry must slide forward on upsert")
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "created_at is set once")
	assert.True(t, second.ExpiresAt.After(second.CreatedAt))
}

func TestMemoryStoreDeleteAbsentIsNoop(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Delete(context.Background(), testKey("never-written")))
}
