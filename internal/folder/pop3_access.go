package folder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/knadh/go-pop3"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// POP3Access fetches an account's root folder over POP3. POP3 has no folder
// hierarchy, so the root is a synthetic INBOX carrying the message count.
type POP3Access struct {
	account models.MailAccount
	conn    *pop3.Conn
}

// NewPOP3Access creates an access handle for a POP3-backed mail account.
func NewPOP3Access(account models.MailAccount) *POP3Access {
	return &POP3Access{account: account}
}

func (a *POP3Access) Connect(ctx context.Context) error {
	client := pop3.New(pop3.Opt{
		Host:       a.account.Host,
		Port:       a.account.Port,
		TLSEnabled: a.account.UseTLS,
	})
	conn, err := client.NewConn()
	if err != nil {
		return &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("dial: %w", err)}
	}
	if err := conn.Auth(a.account.LoginName, a.account.Password); err != nil {
		_ = conn.Quit()
		return &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("auth: %w", err)}
	}
	a.conn = conn
	return nil
}

func (a *POP3Access) RootFolder(ctx context.Context) (*models.Folder, error) {
	count, _, err := a.conn.Stat()
	if err != nil {
		return nil, &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("stat: %w", err)}
	}
	return &models.Folder{
		ID:         "default" + strconv.Itoa(a.account.ID),
		Name:       a.account.DisplayName,
		AccountID:  a.account.ID,
		Module:     "mail",
		Subfolders: false,
		TotalCount: count,
	}, nil
}

func (a *POP3Access) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Quit()
}
