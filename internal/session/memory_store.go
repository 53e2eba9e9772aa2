package session

import (
	"context"
	"sync"
	"time"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	tokens   map[string]tokenEntry
	maxAge   time.Duration
	now      func() time.Time
}

type tokenEntry struct {
	sessionID string
	expires   time.Time
}

// NewMemoryStore creates an empty store. maxAge <= 0 disables expiry.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		tokens:   make(map[string]tokenEntry),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (m *MemoryStore) Lookup(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if m.maxAge > 0 && m.now().Sub(s.LastRequest) > m.maxAge {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) IssueRandomToken(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return "", ErrNotFound
	}
	token := NewID()
	m.tokens[token] = tokenEntry{sessionID: sessionID, expires: m.now().Add(RandomTokenTTL)}
	return token, nil
}

func (m *MemoryStore) RedeemRandomToken(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	entry, ok := m.tokens[token]
	if ok {
		delete(m.tokens, token)
	}
	m.mu.Unlock()
	if !ok || m.now().After(entry.expires) {
		return nil, ErrNotFound
	}
	return m.Lookup(context.Background(), entry.sessionID)
}
