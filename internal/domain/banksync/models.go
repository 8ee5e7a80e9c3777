package banksync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tracksub/internal/domain/subscription"
)

// Transaction is one entry from the feed provider. AmountMinor is in minor
// currency units with debits negative, matching the provider's wire format.
type Transaction struct {
	ID           string
	AccountID    string
	Description  string
	AmountMinor  int64
	Currency     string
	Status       string
	TransactedAt time.Time
}

// ImportedTransaction is a feed transaction persisted for a user. A non-nil
// LinkedSubscriptionID marks it as already consumed by a candidate import.
type ImportedTransaction struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	AccountID            string          `json:"account_id"`
	TransactionID        string          `json:"transaction_id"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	TransactedAt         time.Time       `json:"transacted_at"`
	LinkedSubscriptionID *int64          `json:"linked_subscription_id"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Candidate is a recurring-charge pattern detected in imported transactions.
type Candidate struct {
	Name            string             `json:"name"`
	BillingCycle    subscription.Cycle `json:"billing_cycle"`
	Amount          decimal.Decimal    `json:"amount"`
	LastChargeAt    time.Time          `json:"last_charge_at"`
	NextPaymentDate time.Time          `json:"next_payment_date"`
	Occurrences     int                `json:"occurrences"`
	TransactionIDs  []string           `json:"transaction_ids"`
}

// ImportSelection is a candidate the user chose to turn into a subscription.
type ImportSelection struct {
	Name           string             `json:"name"`
	BillingCycle   subscription.Cycle `json:"billing_cycle"`
	Amount         decimal.Decimal    `json:"amount"`
	Category       string             `json:"category"`
	LastChargeAt   time.Time          `json:"last_charge_at"`
	TransactionIDs []string           `json:"transaction_ids"`
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Fetched        int `json:"fetched"`
	Imported       int `json:"imported"`
	SyncsRemaining int `json:"syncs_remaining"`
}

// TransactionRepository persists imported feed transactions.
type TransactionRepository interface {
	// CreateIfAbsent inserts the transaction unless its TransactionID is
	// already stored for any user, reporting whether a row was written.
	CreateIfAbsent(ctx context.Context, tx *ImportedTransaction) (bool, error)
	// ListUnlinkedSince returns the user's transactions not yet linked to a
	// subscription, transacted on or after since, oldest first.
	ListUnlinkedSince(ctx context.Context, userID int64, since time.Time) ([]*ImportedTransaction, error)
	// ListUnlinkedByIDs filters ids down to those stored for the user and
	// not yet linked to a subscription.
	ListUnlinkedByIDs(ctx context.Context, userID int64, ids []string) ([]string, error)
	// LinkSubscription stamps the given transactions with the subscription
	// they were imported into.
	LinkSubscription(ctx context.Context, userID int64, ids []string, subscriptionID int64) error
}

// Feed is the transaction feed provider client.
type Feed interface {
	// RefreshAccount asks the provider to pull fresh data for the account.
	RefreshAccount(ctx context.Context, accountID string) error
	// ListTransactions returns the account's transactions after since (all
	// of them when since is nil). On a mid-fetch failure it returns the
	// pages retrieved so far together with the error.
	ListTransactions(ctx context.Context, accountID string, since *time.Time) ([]Transaction, error)
}
