package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

func TestMemorySessionRepositoryCRUD(t *testing.T) {
	repo := NewMemorySessionRepository()
	now := time.Now()

	s := &models.Session{
		ID: "s1", Secret: "sec", ContextID: 1, UserID: 3,
		CreateTime: now, LastRequest: now,
	}
	require.NoError(t, repo.Create(s))

	got, err := repo.GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, "sec", got.Secret)

	// GetByID hands out copies.
	got.Secret = "mutated"
	again, err := repo.GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, "sec", again.Secret)

	s.LocalIP = "10.0.0.1"
	require.NoError(t, repo.Update(s))
	updated, err := repo.GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", updated.LocalIP)

	require.NoError(t, repo.Delete("s1"))
	_, err = repo.GetByID("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete("s1"), ErrSessionNotFound)
	assert.ErrorIs(t, repo.Update(s), ErrSessionNotFound)
}

func TestMemorySessionRepositoryGetByUserID(t *testing.T) {
	repo := NewMemorySessionRepository()
	require.NoError(t, repo.Create(&models.Session{ID: "a", ContextID: 1, UserID: 3}))
	require.NoError(t, repo.Create(&models.Session{ID: "b", ContextID: 1, UserID: 3}))
	require.NoError(t, repo.Create(&models.Session{ID: "c", ContextID: 2, UserID: 3}))

	sessions, err := repo.GetByUserID(1, 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestMemorySessionRepositoryCleanup(t *testing.T) {
	repo := NewMemorySessionRepository()
	now := time.Now()

	require.NoError(t, repo.Create(&models.Session{
		ID: "idle", CreateTime: now, LastRequest: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Create(&models.Session{
		ID: "old", CreateTime: now.Add(-48 * time.Hour), LastRequest: now,
	}))
	require.NoError(t, repo.Create(&models.Session{
		ID: "fresh", CreateTime: now, LastRequest: now,
	}))

	n, err := repo.DeleteExpired(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.DeleteByMaxAge(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.GetByID("fresh")
	assert.NoError(t, err)
}
