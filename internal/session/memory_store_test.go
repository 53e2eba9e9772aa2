package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := &models.Session{ID: "s1", Secret: "sec", Hash: "h", LastRequest: time.Now()}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "sec", got.Secret)

	// Lookup hands out a copy.
	got.Secret = "mutated"
	again, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "sec", again.Secret)

	require.NoError(t, store.Remove(ctx, "s1"))
	_, err = store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Remove(ctx, "s1"), ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	s := &models.Session{ID: "s1", LastRequest: now}
	require.NoError(t, store.Save(ctx, s))

	now = now.Add(2 * time.Minute)
	_, err := store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRandomTokens(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := &models.Session{ID: "s1", LastRequest: time.Now()}
	require.NoError(t, store.Save(ctx, s))

	t.Run("single use", func(t *testing.T) {
		token, err := store.IssueRandomToken(ctx, "s1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		got, err := store.RedeemRandomToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "s1", got.ID)

		_, err = store.RedeemRandomToken(ctx, token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := store.IssueRandomToken(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expires after the ttl", func(t *testing.T) {
		now := time.Now()
		store.now = func() time.Time { return now }
		token, err := store.IssueRandomToken(ctx, "s1")
		require.NoError(t, err)

		now = now.Add(RandomTokenTTL + time.Second)
		_, err = store.RedeemRandomToken(ctx, token)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNewIDShape(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Len(t, a, 64, "32 random bytes, hex encoded")
	assert.NotEqual(t, a, b)
}
