package folder

import (
	"context"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// Access is the per-account connect/fetch/close contract the aggregation
// depends on. Implementations block on network I/O; their failures surface
// as *FolderError or *ProtocolError.
type Access interface {
	Connect(ctx context.Context) error
	RootFolder(ctx context.Context) (*models.Folder, error)
	Close() error
}

// AccessProvider opens an access handle for one mail account. Injected so
// tests can substitute controllable fakes for the network-backed
// implementations.
type AccessProvider func(account models.MailAccount) Access

// MessagingService is one registered non-mail messaging backend. Services
// that speak a mail protocol are excluded from aggregation to avoid
// double-counting against the mail account list.
type MessagingService interface {
	ID() string
	IsMailProtocol() bool
	Accounts(ctx context.Context, contextID, userID int) ([]models.MessagingAccount, error)
	AccessFor(account models.MessagingAccount) Access
}

// MessagingRegistry holds the registered messaging services. Registration
// happens at startup; the registry is read-only afterwards.
type MessagingRegistry struct {
	services []MessagingService
}

// NewMessagingRegistry creates a registry over the given services.
func NewMessagingRegistry(services ...MessagingService) *MessagingRegistry {
	return &MessagingRegistry{services: services}
}

// Register appends a service.
func (r *MessagingRegistry) Register(s MessagingService) {
	r.services = append(r.services, s)
}

// messagingTask pairs a resolved messaging account with its owning service.
type messagingTask struct {
	account models.MessagingAccount
	service MessagingService
}

// resolveMessaging collects the accounts of every non-mail service, in
// registration order.
func (r *MessagingRegistry) resolveMessaging(ctx context.Context, contextID, userID int) ([]messagingTask, error) {
	if r == nil {
		return nil, nil
	}
	var tasks []messagingTask
	for _, svc := range r.services {
		if svc.IsMailProtocol() {
			continue
		}
		accounts, err := svc.Accounts(ctx, contextID, userID)
		if err != nil {
			return nil, &ProtocolError{Service: svc.ID(), Err: err}
		}
		for _, a := range accounts {
			tasks = append(tasks, messagingTask{account: a, service: svc})
		}
	}
	return tasks, nil
}
