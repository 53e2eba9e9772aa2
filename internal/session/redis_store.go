package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

const (
	redisSessionPrefix = "ox:session:"
	redisTokenPrefix   = "ox:token:"
)

// RedisStore keeps sessions and redirect tokens in Redis with TTL-based
// expiry. Used by multi-node deployments where any node may serve a request
// for a session created elsewhere.
type RedisStore struct {
	client *redis.Client
	maxAge time.Duration
}

// NewRedisStore connects a store to the configured Redis backend.
func NewRedisStore(cfg config.RedisConfig, maxAge time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, maxAge: maxAge}
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client, maxAge time.Duration) *RedisStore {
	return &RedisStore{client: client, maxAge: maxAge}
}

func (r *RedisStore) Lookup(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, redisSessionPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis lookup: %w", err)
	}
	rec := sessionRecord{Session: &models.Session{}}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", sessionID, err)
	}
	s := rec.Session
	s.Secret = rec.Secret
	s.Hash = rec.Hash
	s.Parameters = rec.Parameters
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(sessionRecord{
		Session:    s,
		Secret:     s.Secret,
		Hash:       s.Hash,
		Parameters: s.Parameters,
	})
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, redisSessionPrefix+s.ID, raw, r.maxAge).Err(); err != nil {
		return fmt.Errorf("session: redis save: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, redisSessionPrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("session: redis remove: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) IssueRandomToken(ctx context.Context, sessionID string) (string, error) {
	if _, err := r.Lookup(ctx, sessionID); err != nil {
		return "", err
	}
	token := NewID()
	if err := r.client.Set(ctx, redisTokenPrefix+token, sessionID, RandomTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("session: redis token: %w", err)
	}
	return token, nil
}

// RedeemRandomToken consumes the token atomically via GETDEL so a token can
// never redeem twice even under concurrent requests.
func (r *RedisStore) RedeemRandomToken(ctx context.Context, token string) (*models.Session, error) {
	sessionID, err := r.client.GetDel(ctx, redisTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis redeem: %w", err)
	}
	return r.Lookup(ctx, sessionID)
}

// sessionRecord is the Redis serialization of a session. The wire JSON of
// models.Session hides secret, hash and parameters; the store needs them
// persisted.
type sessionRecord struct {
	*models.Session
	Secret     string            `json:"secret"`
	Hash       string            `json:"hash"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

func (r *RedisStore) Close() error { return r.client.Close() }
