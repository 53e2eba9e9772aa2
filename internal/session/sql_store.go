package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/repository"
)

// SQLStore persists sessions through the sessions-table repository. Redirect
// tokens are short-lived and node-local, so they stay in memory; multi-node
// deployments use RedisStore instead.
type SQLStore struct {
	repo repository.SessionRepository

	mu     sync.Mutex
	tokens map[string]tokenEntry
}

// NewSQLStore wraps a session repository.
func NewSQLStore(repo repository.SessionRepository) *SQLStore {
	return &SQLStore{repo: repo, tokens: make(map[string]tokenEntry)}
}

func (s *SQLStore) Lookup(_ context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.repo.GetByID(sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) Save(_ context.Context, sess *models.Session) error {
	err := s.repo.Update(sess)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return s.repo.Create(sess)
	}
	return err
}

func (s *SQLStore) Remove(_ context.Context, sessionID string) error {
	err := s.repo.Delete(sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) IssueRandomToken(ctx context.Context, sessionID string) (string, error) {
	if _, err := s.Lookup(ctx, sessionID); err != nil {
		return "", err
	}
	token := NewID()
	s.mu.Lock()
	s.tokens[token] = tokenEntry{sessionID: sessionID, expires: time.Now().Add(RandomTokenTTL)}
	s.mu.Unlock()
	return token, nil
}

func (s *SQLStore) RedeemRandomToken(ctx context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	entry, ok := s.tokens[token]
	if ok {
		delete(s.tokens, token)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, ErrNotFound
	}
	return s.Lookup(ctx, entry.sessionID)
}
