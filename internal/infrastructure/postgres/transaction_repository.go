package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tracksub/internal/domain/banksync"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, user_id, account_id, transaction_id, description, amount, currency,
	status, transacted_at, linked_subscription_id, created_at
`

// CreateIfAbsent relies on the unique index on transaction_id: replays of
// already-synced feed pages turn into no-op inserts.
func (r *TransactionRepository) CreateIfAbsent(ctx context.Context, tx *banksync.ImportedTransaction) (bool, error) {
	query := `
		INSERT INTO imported_transactions (user_id, account_id, transaction_id, description, amount, currency, status, transacted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transaction_id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		tx.UserID, tx.AccountID, tx.TransactionID, tx.Description, tx.Amount, tx.Currency, tx.Status, tx.TransactedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to store transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (r *TransactionRepository) ListUnlinkedSince(ctx context.Context, userID int64, since time.Time) ([]*banksync.ImportedTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM imported_transactions
		WHERE user_id = $1 AND linked_subscription_id IS NULL AND transacted_at >= $2
		ORDER BY transacted_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*banksync.ImportedTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *TransactionRepository) ListUnlinkedByIDs(ctx context.Context, userID int64, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT transaction_id
		FROM imported_transactions
		WHERE user_id = $1 AND linked_subscription_id IS NULL AND transaction_id = ANY($2)
	`

	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to filter transactions: %w", err)
	}
	defer rows.Close()

	var unlinked []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		unlinked = append(unlinked, id)
	}
	return unlinked, rows.Err()
}

func (r *TransactionRepository) LinkSubscription(ctx context.Context, userID int64, ids []string, subscriptionID int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE imported_transactions
		SET linked_subscription_id = $3
		WHERE user_id = $1 AND transaction_id = ANY($2) AND linked_subscription_id IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(ids), subscriptionID); err != nil {
		return fmt.Errorf("failed to link transactions: %w", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (*banksync.ImportedTransaction, error) {
	var tx banksync.ImportedTransaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.TransactionID, &tx.Description, &tx.Amount,
		&tx.Currency, &tx.Status, &tx.TransactedAt, &tx.LinkedSubscriptionID, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
