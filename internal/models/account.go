package models

// UnifiedMailAccountID is the fixed identifier of the Unified Mail
// pseudo-account. It sorts before every real account when present.
const UnifiedMailAccountID = 1690

// DefaultMailAccountID is the identifier of a user's primary mail account.
const DefaultMailAccountID = 0

// MailAccount describes one mail account visible to a user.
type MailAccount struct {
	ID          int    `json:"id" db:"id"`
	UserID      int    `json:"user_id" db:"user_id"`
	ContextID   int    `json:"context_id" db:"context_id"`
	DisplayName string `json:"name" db:"display_name"`
	Protocol    string `json:"protocol" db:"protocol"` // "imap", "pop3", "unifiedmail"
	Host        string `json:"host" db:"host"`
	Port        int    `json:"port" db:"port"`
	LoginName   string `json:"login" db:"login_name"`
	Password    string `json:"-" db:"password"`
	UseTLS      bool   `json:"use_tls" db:"use_tls"`
	Enabled     bool   `json:"enabled" db:"enabled"`
}

// IsUnified reports whether the account is the Unified Mail pseudo-account.
func (a MailAccount) IsUnified() bool {
	return a.ID == UnifiedMailAccountID || a.Protocol == "unifiedmail"
}

// IsDefault reports whether the account is the user's primary account.
func (a MailAccount) IsDefault() bool {
	return a.ID == DefaultMailAccountID
}

// MessagingAccount describes an account of a registered non-mail messaging
// service (RSS, social feeds and the like). Mail-protocol services are never
// represented here to avoid double-counting against MailAccount.
type MessagingAccount struct {
	ID          int    `json:"id"`
	ServiceID   string `json:"service_id"`
	DisplayName string `json:"name"`
}
