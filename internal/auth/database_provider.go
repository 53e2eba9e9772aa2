package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/database"
)

// DatabaseProvider authenticates against the users table.
type DatabaseProvider struct {
	db *sqlx.DB
}

// NewDatabaseProvider creates a new database authentication provider.
func NewDatabaseProvider(db *sqlx.DB) *DatabaseProvider {
	return &DatabaseProvider{db: db}
}

type userRow struct {
	ContextID    int    `db:"context_id"`
	UserID       int    `db:"id"`
	Login        string `db:"login"`
	PasswordHash string `db:"password_hash"`
	Locale       string `db:"locale"`
	Enabled      bool   `db:"enabled"`
}

// Authenticate verifies the login/password pair against the stored bcrypt
// hash. The hash comparison runs even for disabled users so timing does not
// reveal account state.
func (p *DatabaseProvider) Authenticate(ctx context.Context, login, password string) (*Principal, error) {
	query := database.ConvertPlaceholders(`
		SELECT context_id, id, login, password_hash, locale, enabled
		FROM users WHERE login = ?`)

	var row userRow
	if err := p.db.GetContext(ctx, &row, query, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthBackendFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !row.Enabled {
		return nil, ErrUserDisabled
	}

	return &Principal{
		ContextID: row.ContextID,
		UserID:    row.UserID,
		Login:     row.Login,
		Locale:    row.Locale,
	}, nil
}

// Enabled re-checks that the context and user behind a session are both
// still active. Fails closed: a missing row counts as disabled.
func (p *DatabaseProvider) Enabled(ctx context.Context, contextID, userID int) error {
	var contextEnabled bool
	query := database.ConvertPlaceholders(`SELECT enabled FROM contexts WHERE id = ?`)
	if err := p.db.GetContext(ctx, &contextEnabled, query, contextID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContextDisabled
		}
		return fmt.Errorf("%w: %v", ErrAuthBackendFailed, err)
	}
	if !contextEnabled {
		return ErrContextDisabled
	}

	var userEnabled bool
	query = database.ConvertPlaceholders(`SELECT enabled FROM users WHERE context_id = ? AND id = ?`)
	if err := p.db.GetContext(ctx, &userEnabled, query, contextID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserDisabled
		}
		return fmt.Errorf("%w: %v", ErrAuthBackendFailed, err)
	}
	if !userEnabled {
		return ErrUserDisabled
	}
	return nil
}

// Name returns the name of this auth provider.
func (p *DatabaseProvider) Name() string {
	return "Database"
}

// Priority returns the priority of this provider.
func (p *DatabaseProvider) Priority() int {
	return 10
}
