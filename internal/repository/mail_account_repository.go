package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/database"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// MailAccountRepository resolves the mail accounts visible to a user.
type MailAccountRepository interface {
	ListEnabled(contextID, userID int) ([]models.MailAccount, error)
	GetDefault(contextID, userID int) (*models.MailAccount, error)
}

// MailAccountSQLRepository reads mail accounts from the mail_accounts table.
type MailAccountSQLRepository struct {
	db *sqlx.DB
}

// NewMailAccountRepository creates a new mail account repository.
func NewMailAccountRepository(db *sqlx.DB) *MailAccountSQLRepository {
	return &MailAccountSQLRepository{db: db}
}

// ListEnabled returns every enabled mail account of a user, unsorted. The
// aggregation layer owns the ordering.
func (r *MailAccountSQLRepository) ListEnabled(contextID, userID int) ([]models.MailAccount, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, user_id, context_id, display_name, protocol, host, port,
		       login_name, password, use_tls, enabled
		FROM mail_accounts
		WHERE context_id = ? AND user_id = ? AND enabled = ?`)

	var accounts []models.MailAccount
	if err := r.db.Select(&accounts, query, contextID, userID, true); err != nil {
		return nil, fmt.Errorf("failed to list mail accounts: %w", err)
	}
	return accounts, nil
}

// GetDefault returns the user's primary mail account.
func (r *MailAccountSQLRepository) GetDefault(contextID, userID int) (*models.MailAccount, error) {
	query := database.ConvertPlaceholders(`
		SELECT id, user_id, context_id, display_name, protocol, host, port,
		       login_name, password, use_tls, enabled
		FROM mail_accounts
		WHERE context_id = ? AND user_id = ? AND id = ?`)

	var account models.MailAccount
	if err := r.db.Get(&account, query, contextID, userID, models.DefaultMailAccountID); err != nil {
		return nil, fmt.Errorf("failed to load default mail account: %w", err)
	}
	return &account, nil
}
