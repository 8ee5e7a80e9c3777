package banksync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"tracksub/internal/domain/subscription"
	"tracksub/internal/domain/user"
	"tracksub/internal/shared/telemetry"
)

// MonthlySyncLimit caps feed syncs per user per calendar month.
const MonthlySyncLimit = 2

// candidateLookbackDays bounds how far back candidate detection looks.
const candidateLookbackDays = 365

type Service struct {
	users   user.Repository
	txs     TransactionRepository
	subs    *subscription.Service
	feed    Feed
	grouper Grouper
	now     func() time.Time
}

func NewService(users user.Repository, txs TransactionRepository, subs *subscription.Service, feed Feed, grouper Grouper) *Service {
	if grouper == nil {
		grouper = NewGrouper()
	}
	return &Service{users: users, txs: txs, subs: subs, feed: feed, grouper: grouper, now: time.Now}
}

// Attach stores the provider account for the user after linking.
func (s *Service) Attach(ctx context.Context, userID int64, accountID, sessionID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsPro() {
		return ErrPlanRequired
	}
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	return s.users.AttachFinancialAccount(ctx, userID, accountID, sessionID)
}

// Sync pulls new transactions from the feed for the user's linked account.
// The quota pre-check rejects without touching anything; a refresh failure
// consumes no quota. Once transactions have been fetched the run counts
// against the quota even if a later page failed, because the rows already
// written and the advanced cursor must stay consistent with the counter.
func (s *Service) Sync(ctx context.Context, userID int64) (*SyncResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPro() {
		telemetry.SyncsTotal.WithLabelValues("plan_rejected").Inc()
		return nil, ErrPlanRequired
	}
	if u.FinancialAccountID == nil || *u.FinancialAccountID == "" {
		return nil, ErrNotLinked
	}

	monthKey := s.monthKey()
	if u.FinancialSyncMonth != nil && *u.FinancialSyncMonth == monthKey && u.FinancialSyncCount >= MonthlySyncLimit {
		telemetry.SyncsTotal.WithLabelValues("quota_rejected").Inc()
		return nil, ErrSyncLimitExceeded
	}

	accountID := *u.FinancialAccountID
	if err := s.feed.RefreshAccount(ctx, accountID); err != nil {
		telemetry.SyncsTotal.WithLabelValues("feed_error").Inc()
		return nil, &FeedError{Op: "refresh", Err: err}
	}

	page, listErr := s.feed.ListTransactions(ctx, accountID, u.FinancialLastSyncAt)

	imported := 0
	cursor := u.FinancialLastSyncAt
	for _, ft := range page {
		created, err := s.txs.CreateIfAbsent(ctx, fromFeed(userID, ft))
		if err != nil {
			return nil, fmt.Errorf("storing transaction %s: %w", ft.ID, err)
		}
		if created {
			imported++
			telemetry.TransactionsImported.Inc()
		}
		if cursor == nil || ft.TransactedAt.After(*cursor) {
			t := ft.TransactedAt
			cursor = &t
		}
	}

	count, ok, err := s.users.ConsumeSyncQuota(ctx, userID, monthKey, MonthlySyncLimit, user.SyncState{LastSyncAt: cursor})
	if err != nil {
		return nil, fmt.Errorf("consuming sync quota: %w", err)
	}
	if !ok {
		// A concurrent sync won the last slot. The rows written above are
		// idempotent inserts, so nothing needs undoing.
		telemetry.SyncsTotal.WithLabelValues("quota_rejected").Inc()
		return nil, ErrSyncLimitExceeded
	}

	if listErr != nil {
		telemetry.SyncsTotal.WithLabelValues("feed_error").Inc()
		return nil, &FeedError{Op: "list", Err: listErr}
	}

	// count comes from the update itself, not the row snapshot read earlier.
	remaining := MonthlySyncLimit - count
	if remaining < 0 {
		remaining = 0
	}

	telemetry.SyncsTotal.WithLabelValues("ok").Inc()
	log.Printf("bank sync for user %d: fetched %d, imported %d", userID, len(page), imported)
	return &SyncResult{Fetched: len(page), Imported: imported, SyncsRemaining: remaining}, nil
}

// Candidates detects recurring charges among the user's unlinked imported
// transactions from the last year.
func (s *Service) Candidates(ctx context.Context, userID int64) ([]Candidate, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPro() {
		return nil, ErrPlanRequired
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -candidateLookbackDays)
	txs, err := s.txs.ListUnlinkedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("listing imported transactions: %w", err)
	}
	return s.grouper.Group(txs, now), nil
}

// Import turns chosen candidates into subscriptions and links their source
// transactions. A selection whose transactions are all linked already is
// skipped, so repeating an import request cannot duplicate subscriptions.
func (s *Service) Import(ctx context.Context, userID int64, selections []ImportSelection) ([]*subscription.Subscription, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPro() {
		return nil, ErrPlanRequired
	}

	var created []*subscription.Subscription
	for _, sel := range selections {
		unlinked, err := s.txs.ListUnlinkedByIDs(ctx, userID, sel.TransactionIDs)
		if err != nil {
			return created, fmt.Errorf("checking transactions for %q: %w", sel.Name, err)
		}
		if len(unlinked) == 0 {
			log.Printf("import for user %d: skipping %q, transactions already linked", userID, sel.Name)
			continue
		}

		sub, err := s.subs.Create(ctx, userID, subscription.CreateParams{
			Name:         sel.Name,
			BillingCycle: sel.BillingCycle,
			StartDate:    sel.LastChargeAt,
			Amount:       sel.Amount,
			Category:     sel.Category,
		})
		if err != nil {
			return created, fmt.Errorf("creating subscription %q: %w", sel.Name, err)
		}

		if err := s.txs.LinkSubscription(ctx, userID, unlinked, sub.ID); err != nil {
			return created, fmt.Errorf("linking transactions for %q: %w", sel.Name, err)
		}
		created = append(created, sub)
	}
	return created, nil
}

func (s *Service) monthKey() string {
	return s.now().UTC().Format("2006-01")
}

func fromFeed(userID int64, ft Transaction) *ImportedTransaction {
	return &ImportedTransaction{
		UserID:        userID,
		AccountID:     ft.AccountID,
		TransactionID: ft.ID,
		Description:   ft.Description,
		Amount:        decimal.New(ft.AmountMinor, -2),
		Currency:      ft.Currency,
		Status:        ft.Status,
		TransactedAt:  ft.TransactedAt,
	}
}
