package folder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// IMAPAccess fetches an account's root folder over IMAP.
type IMAPAccess struct {
	account models.MailAccount
	tlsMode string
	client  *imapclient.Client
}

// NewIMAPAccess creates an access handle for an IMAP-backed mail account.
func NewIMAPAccess(account models.MailAccount, tlsMode string) *IMAPAccess {
	return &IMAPAccess{account: account, tlsMode: tlsMode}
}

func (a *IMAPAccess) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.account.Host, a.account.Port)

	var (
		client *imapclient.Client
		err    error
	)
	switch {
	case a.account.UseTLS || a.tlsMode == "implicit":
		client, err = imapclient.DialTLS(addr, nil)
	case a.tlsMode == "starttls":
		client, err = imapclient.DialStartTLS(addr, nil)
	default:
		client, err = imapclient.DialInsecure(addr, nil)
	}
	if err != nil {
		return &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("dial %s: %w", addr, err)}
	}

	if err := client.Login(a.account.LoginName, a.account.Password).Wait(); err != nil {
		client.Close()
		return &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("login: %w", err)}
	}
	a.client = client
	return nil
}

func (a *IMAPAccess) RootFolder(ctx context.Context) (*models.Folder, error) {
	status, err := a.client.Status("INBOX", &imap.StatusOptions{
		NumMessages: true,
		NumUnseen:   true,
	}).Wait()
	if err != nil {
		return nil, &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("status: %w", err)}
	}

	mailboxes, err := a.client.List("", "%", nil).Collect()
	if err != nil {
		return nil, &FolderError{AccountID: a.account.ID, AccountName: a.account.DisplayName, Err: fmt.Errorf("list: %w", err)}
	}

	f := &models.Folder{
		ID:         "default" + strconv.Itoa(a.account.ID),
		Name:       a.account.DisplayName,
		AccountID:  a.account.ID,
		Module:     "mail",
		Subfolders: len(mailboxes) > 0,
	}
	if status.NumMessages != nil {
		f.TotalCount = int(*status.NumMessages)
	}
	if status.NumUnseen != nil {
		f.UnreadCount = int(*status.NumUnseen)
	}
	return f, nil
}

func (a *IMAPAccess) Close() error {
	if a.client == nil {
		return nil
	}
	if err := a.client.Logout().Wait(); err != nil {
		return a.client.Close()
	}
	return a.client.Close()
}
