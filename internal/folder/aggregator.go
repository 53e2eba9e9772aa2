// Package folder implements the concurrent multi-account root-folder
// aggregation: one bounded fan-out per request, per-account failure
// isolation and a single first-observed warning.
package folder

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/repository"
)

// UnifiedEnablement answers whether Unified Mail is administratively enabled
// for a user. Checked separately from account resolution, after sorting and
// before the slot array is sized.
type UnifiedEnablement interface {
	UnifiedEnabled(ctx context.Context, contextID, userID int) (bool, error)
}

// Aggregator fans the per-account root-folder fetches out over a shared
// bounded pool and folds the results back into resolution order.
type Aggregator struct {
	accounts  repository.MailAccountRepository
	messaging *MessagingRegistry
	unified   UnifiedEnablement
	access    AccessProvider
	pool      *semaphore.Weighted
}

// NewAggregator wires an aggregator. workers bounds the shared fan-out pool.
func NewAggregator(accounts repository.MailAccountRepository, messaging *MessagingRegistry, unified UnifiedEnablement, access AccessProvider, workers int64) *Aggregator {
	if workers <= 0 {
		workers = 8
	}
	return &Aggregator{
		accounts:  accounts,
		messaging: messaging,
		unified:   unified,
		access:    access,
		pool:      semaphore.NewWeighted(workers),
	}
}

// Result is the aggregation output: the flattened root-folder fragments in
// resolution order, plus at most one warning describing the first per-account
// failure observed in completion order.
type Result struct {
	Folders []*models.Folder
	Warning error
}

type slotResult struct {
	index  int
	folder *models.Folder
	err    error
}

// RootFolders produces the ordered root-folder list across every mail and
// messaging account of a user.
//
// Output order always matches the deterministic pre-sort of the account
// list; only the choice of which failure becomes the warning depends on
// completion order. Per-account failures never abort sibling fetches; an
// interrupted wait or an unrecognized failure aborts the whole call.
func (a *Aggregator) RootFolders(ctx context.Context, contextID, userID int, locale string) (*Result, error) {
	m := globalAggregationMetrics()
	m.runs.Inc()
	timer := prometheus.NewTimer(m.durations)
	defer timer.ObserveDuration()

	mailAccounts, err := a.resolveMailAccounts(ctx, contextID, userID)
	if err != nil {
		return nil, err
	}
	SortMailAccounts(mailAccounts, locale)
	mailAccounts, err = a.pruneUnified(ctx, contextID, userID, mailAccounts)
	if err != nil {
		return nil, err
	}

	messagingTasks, err := a.messaging.resolveMessaging(ctx, contextID, userID)
	if err != nil {
		return nil, err
	}

	// Slot count is fixed here, after pruning; each worker owns exactly
	// one index.
	total := len(mailAccounts) + len(messagingTasks)
	slots := make([]*models.Folder, total)
	results := make(chan slotResult, total)

	submitted := 0
	for i, account := range mailAccounts {
		if err := a.submit(ctx, results, i, a.access(account), fmt.Sprintf("mail account %d", account.ID)); err != nil {
			return nil, err
		}
		submitted++
	}
	for i, task := range messagingTasks {
		index := len(mailAccounts) + i
		if err := a.submit(ctx, results, index, task.service.AccessFor(task.account), fmt.Sprintf("messaging account %d", task.account.ID)); err != nil {
			return nil, err
		}
		submitted++
	}

	// Drain one result per submitted task, in completion order. Only the
	// first recognized failure is kept as the warning; later ones stay
	// absorbed in their empty slots.
	var warning error
	for done := 0; done < submitted; done++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-results:
			if res.err != nil {
				if !recognized(res.err) {
					return nil, res.err
				}
				m.accounts.WithLabelValues("failed").Inc()
				if warning == nil {
					warning = res.err
				}
				continue
			}
			m.accounts.WithLabelValues("ok").Inc()
			slots[res.index] = res.folder
		}
	}

	// Flatten in index order, skipping empty slots.
	folders := make([]*models.Folder, 0, total)
	for _, f := range slots {
		if f != nil {
			folders = append(folders, f)
		}
	}
	return &Result{Folders: folders, Warning: warning}, nil
}

// submit acquires a pool slot and starts the worker. Acquisition failure is
// a pool-level failure and fails the entire request, unlike per-account
// fetch failures.
func (a *Aggregator) submit(ctx context.Context, results chan<- slotResult, index int, access Access, label string) error {
	if err := a.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("folder: submitting %s: %w", label, err)
	}
	go func() {
		defer a.pool.Release(1)
		folder, err := fetchRoot(ctx, access)
		if err != nil {
			log.Printf("folder: %s root fetch failed: %v", label, err)
		}
		results <- slotResult{index: index, folder: folder, err: err}
	}()
	return nil
}

// fetchRoot opens the access handle, fetches the root folder and always
// closes the handle, even on failure.
func fetchRoot(ctx context.Context, access Access) (*models.Folder, error) {
	if err := access.Connect(ctx); err != nil {
		return nil, err
	}
	defer access.Close()
	return access.RootFolder(ctx)
}

// resolveMailAccounts returns all enabled accounts, or a synthesized
// single-element list holding only the default account when the user has no
// multi-account setup.
func (a *Aggregator) resolveMailAccounts(ctx context.Context, contextID, userID int) ([]models.MailAccount, error) {
	accounts, err := a.accounts.ListEnabled(contextID, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return accounts, nil
	}
	def, err := a.accounts.GetDefault(contextID, userID)
	if err != nil {
		return nil, err
	}
	return []models.MailAccount{*def}, nil
}

// pruneUnified drops the Unified Mail pseudo-account from slot zero when the
// feature is administratively disabled for this user. Runs before the slot
// array is sized, so the final slot count reflects the pruned list.
func (a *Aggregator) pruneUnified(ctx context.Context, contextID, userID int, accounts []models.MailAccount) ([]models.MailAccount, error) {
	if len(accounts) == 0 || !accounts[0].IsUnified() || a.unified == nil {
		return accounts, nil
	}
	enabled, err := a.unified.UnifiedEnabled(ctx, contextID, userID)
	if err != nil {
		return nil, err
	}
	if enabled {
		return accounts, nil
	}
	return accounts[1:], nil
}
