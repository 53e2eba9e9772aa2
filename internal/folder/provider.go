package folder

import (
	"context"
	"strconv"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// DefaultAccessProvider selects the access implementation by account
// protocol. The Unified Mail pseudo-account never touches the network; its
// root folder is synthesized locally.
func DefaultAccessProvider(cfg *config.Config) AccessProvider {
	tlsMode := cfg.Mail.EffectiveTLSMode()
	return func(account models.MailAccount) Access {
		switch account.Protocol {
		case "pop3", "pop3s":
			return NewPOP3Access(account)
		case "unifiedmail":
			return unifiedAccess{account: account}
		default:
			return NewIMAPAccess(account, tlsMode)
		}
	}
}

// ConfigUnifiedEnablement answers the Unified Mail question from the
// configuration snapshot, for deployments without per-user capability
// storage.
type ConfigUnifiedEnablement struct {
	Conf func() *config.Config
}

func (e ConfigUnifiedEnablement) UnifiedEnabled(ctx context.Context, contextID, userID int) (bool, error) {
	return e.Conf().Mail.UnifiedEnabled, nil
}

// unifiedAccess synthesizes the Unified Mail root folder without any
// backing connection.
type unifiedAccess struct {
	account models.MailAccount
}

func (u unifiedAccess) Connect(ctx context.Context) error { return nil }

func (u unifiedAccess) RootFolder(ctx context.Context) (*models.Folder, error) {
	return &models.Folder{
		ID:         "default" + strconv.Itoa(u.account.ID),
		Name:       u.account.DisplayName,
		AccountID:  u.account.ID,
		Module:     "mail",
		Subfolders: true,
	}, nil
}

func (u unifiedAccess) Close() error { return nil }
