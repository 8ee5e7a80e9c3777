package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tracksub/internal/domain/subscription"
)

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `
	id, user_id, name, billing_cycle, start_date, next_payment_date, amount, category, status
`

func (r *SubscriptionRepository) Create(ctx context.Context, userID int64, params subscription.CreateParams) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, name, billing_cycle, start_date, next_payment_date, amount, category, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRowContext(
		ctx, query,
		userID, params.Name, params.BillingCycle, params.StartDate, params.NextPaymentDate,
		params.Amount, params.Category, params.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id, userID int64) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND user_id = $2`

	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscription.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) ListByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY next_payment_date, id`
	return r.list(ctx, query, userID)
}

func (r *SubscriptionRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY next_payment_date, id
	`
	return r.list(ctx, query, userID)
}

func (r *SubscriptionRepository) ListActiveDueOn(ctx context.Context, userID int64, date time.Time) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND next_payment_date = $2
		ORDER BY id
	`
	return r.list(ctx, query, userID, date)
}

func (r *SubscriptionRepository) Update(ctx context.Context, id, userID int64, params subscription.CreateParams) (*subscription.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET name = $3, billing_cycle = $4, start_date = $5, next_payment_date = $6,
		    amount = $7, category = $8, status = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRowContext(
		ctx, query,
		id, userID, params.Name, params.BillingCycle, params.StartDate, params.NextPaymentDate,
		params.Amount, params.Category, params.Status,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscription.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Name, &sub.BillingCycle, &sub.StartDate,
		&sub.NextPaymentDate, &sub.Amount, &sub.Category, &sub.Status,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
