package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	l := NewMemoryList()
	l.now = func() time.Time { return now }

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := l.IsRevoked(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked without ttl stays revoked", func(t *testing.T) {
		require.NoError(t, l.Revoke(ctx, "forever", 0))

		now = now.Add(24 * time.Hour)
		revoked, err := l.IsRevoked(ctx, "forever")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("entry expires after ttl", func(t *testing.T) {
		require.NoError(t, l.Revoke(ctx, "short", time.Minute))

		revoked, err := l.IsRevoked(ctx, "short")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(2 * time.Minute)
		revoked, err = l.IsRevoked(ctx, "short")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("empty hash is ignored", func(t *testing.T) {
		require.NoError(t, l.Revoke(ctx, "", time.Minute))
		revoked, err := l.IsRevoked(ctx, "")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestMemoryList_EvictKeepsRefreshedEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	l := NewMemoryList()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Revoke(ctx, "tok", time.Minute))
	now = now.Add(2 * time.Minute)

	// revoked again after IsRevoked read the stale entry but before it evicted
	require.NoError(t, l.Revoke(ctx, "tok", time.Hour))
	l.evict("tok")

	revoked, err := l.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Hour)
	l.evict("tok")
	_, ok := l.entries["tok"]
	assert.False(t, ok)
}
