package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/database"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// ErrSessionNotFound is returned when no session exists for an id.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	Create(session *models.Session) error
	GetByID(sessionID string) (*models.Session, error)
	GetByUserID(contextID, userID int) ([]*models.Session, error)
	Update(session *models.Session) error
	UpdateLastRequest(sessionID string) error
	Delete(sessionID string) error
	DeleteExpired(maxIdle time.Duration) (int, error)
	DeleteByMaxAge(maxAge time.Duration) (int, error)
}

// SessionSQLRepository stores sessions in a key-value sessions table with
// columns: session_id, data_key, data_value, serialized.
type SessionSQLRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionSQLRepository {
	return &SessionSQLRepository{db: db}
}

// Session data keys.
const (
	keySecret      = "Secret"
	keyHash        = "Hash"
	keyContextID   = "ContextID"
	keyUserID      = "UserID"
	keyLogin       = "Login"
	keyLocalIP     = "LocalIP"
	keyAuthID      = "AuthID"
	keyClient      = "Client"
	keyCreateTime  = "CreateTime"
	keyLastRequest = "LastRequest"
	keyParameters  = "Parameters"
)

// Create stores a new session in the key-value sessions table.
func (r *SessionSQLRepository) Create(session *models.Session) error {
	if session.ID == "" {
		return errors.New("session ID is required")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	insertQuery := database.ConvertPlaceholders(`
		INSERT INTO sessions (session_id, data_key, data_value, serialized)
		VALUES (?, ?, ?, ?)`)

	pairs := []struct {
		key        string
		value      string
		serialized int
	}{
		{keySecret, session.Secret, 0},
		{keyHash, session.Hash, 0},
		{keyContextID, strconv.Itoa(session.ContextID), 0},
		{keyUserID, strconv.Itoa(session.UserID), 0},
		{keyLogin, session.Login, 0},
		{keyLocalIP, session.LocalIP, 0},
		{keyAuthID, session.AuthID, 0},
		{keyClient, session.Client, 0},
		{keyCreateTime, session.CreateTime.Format(time.RFC3339), 0},
		{keyLastRequest, session.LastRequest.Format(time.RFC3339), 0},
	}
	for _, p := range pairs {
		if _, err = tx.Exec(insertQuery, session.ID, p.key, p.value, p.serialized); err != nil {
			return fmt.Errorf("failed to insert %s: %w", p.key, err)
		}
	}

	if len(session.Parameters) > 0 {
		var blob []byte
		blob, err = json.Marshal(session.Parameters)
		if err != nil {
			return fmt.Errorf("failed to serialize parameters: %w", err)
		}
		if _, err = tx.Exec(insertQuery, session.ID, keyParameters, string(blob), 1); err != nil {
			return fmt.Errorf("failed to insert Parameters: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionSQLRepository) GetByID(sessionID string) (*models.Session, error) {
	query := database.ConvertPlaceholders(`
		SELECT data_key, data_value, serialized
		FROM sessions WHERE session_id = ?`)

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	session := &models.Session{ID: sessionID}
	found := false
	for rows.Next() {
		var key, value string
		var serialized int
		if err := rows.Scan(&key, &value, &serialized); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		found = true
		applySessionKey(session, key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func applySessionKey(session *models.Session, key, value string) {
	switch key {
	case keySecret:
		session.Secret = value
	case keyHash:
		session.Hash = value
	case keyContextID:
		session.ContextID, _ = strconv.Atoi(value)
	case keyUserID:
		session.UserID, _ = strconv.Atoi(value)
	case keyLogin:
		session.Login = value
	case keyLocalIP:
		session.LocalIP = value
	case keyAuthID:
		session.AuthID = value
	case keyClient:
		session.Client = value
	case keyCreateTime:
		session.CreateTime, _ = time.Parse(time.RFC3339, value)
	case keyLastRequest:
		session.LastRequest, _ = time.Parse(time.RFC3339, value)
	case keyParameters:
		var params map[string]string
		if err := json.Unmarshal([]byte(value), &params); err == nil {
			session.Parameters = params
		}
	}
}

// GetByUserID retrieves all sessions belonging to a context/user pair.
func (r *SessionSQLRepository) GetByUserID(contextID, userID int) ([]*models.Session, error) {
	query := database.ConvertPlaceholders(`
		SELECT session_id FROM sessions
		WHERE data_key = ? AND data_value = ?`)

	rows, err := r.db.Query(query, keyUserID, strconv.Itoa(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetByID(id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		if s.ContextID == contextID {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Update rewrites the mutable fields of an existing session.
func (r *SessionSQLRepository) Update(session *models.Session) error {
	if err := r.Delete(session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return r.Create(session)
}

// UpdateLastRequest updates the last-request timestamp for a session.
func (r *SessionSQLRepository) UpdateLastRequest(sessionID string) error {
	query := database.ConvertPlaceholders(`
		UPDATE sessions SET data_value = ?
		WHERE session_id = ? AND data_key = ?`)

	result, err := r.db.Exec(query, time.Now().Format(time.RFC3339), sessionID, keyLastRequest)
	if err != nil {
		return fmt.Errorf("failed to update last request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes all rows of a session.
func (r *SessionSQLRepository) Delete(sessionID string) error {
	query := database.ConvertPlaceholders(`DELETE FROM sessions WHERE session_id = ?`)
	result, err := r.db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions idle longer than maxIdle.
// Returns the number of sessions removed.
func (r *SessionSQLRepository) DeleteExpired(maxIdle time.Duration) (int, error) {
	return r.deleteOlderThan(keyLastRequest, maxIdle)
}

// DeleteByMaxAge removes sessions created more than maxAge ago, regardless
// of activity. Returns the number of sessions removed.
func (r *SessionSQLRepository) DeleteByMaxAge(maxAge time.Duration) (int, error) {
	return r.deleteOlderThan(keyCreateTime, maxAge)
}

func (r *SessionSQLRepository) deleteOlderThan(key string, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age).Format(time.RFC3339)

	// RFC3339 strings compare lexically in timestamp order.
	query := database.ConvertPlaceholders(`
		SELECT session_id FROM sessions
		WHERE data_key = ? AND data_value < ?`)

	rows, err := r.db.Query(query, key, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to query expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if err := r.Delete(id); err == nil {
			deleted++
		}
	}
	return deleted, nil
}
