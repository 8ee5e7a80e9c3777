package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tracksub/internal/domain/user"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, password_hash, notification_lead_days, plan, subscription_status,
	calendar_token, financial_account_id, financial_session_id,
	financial_sync_month, financial_sync_count, financial_last_sync_at
`

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, params.Email, params.PasswordHash))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByCalendarToken(ctx context.Context, token string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE calendar_token = $1`
	return r.getOne(ctx, query, token)
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateLeadDays(ctx context.Context, id int64, days int) error {
	query := `UPDATE users SET notification_lead_days = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, days)
}

func (r *UserRepository) UpdatePlan(ctx context.Context, id int64, plan, subscriptionStatus string) error {
	query := `UPDATE users SET plan = $2, subscription_status = $3, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, plan, subscriptionStatus)
}

func (r *UserRepository) SetCalendarToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE users SET calendar_token = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, token)
}

func (r *UserRepository) AttachFinancialAccount(ctx context.Context, id int64, accountID, sessionID string) error {
	query := `
		UPDATE users
		SET financial_account_id = $2, financial_session_id = $3, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, accountID, sessionID)
}

// ConsumeSyncQuota spends one sync slot in a single conditional UPDATE, so
// concurrent syncs cannot both take the last slot. The row is left untouched
// when the stored month matches monthKey and the counter is already at limit.
func (r *UserRepository) ConsumeSyncQuota(ctx context.Context, id int64, monthKey string, limit int, state user.SyncState) (int, bool, error) {
	query := `
		UPDATE users
		SET financial_sync_count = CASE
		        WHEN financial_sync_month = $2 THEN financial_sync_count + 1
		        ELSE 1
		    END,
		    financial_sync_month = $2,
		    financial_last_sync_at = COALESCE($4, financial_last_sync_at),
		    updated_at = now()
		WHERE id = $1
		  AND (financial_sync_month IS DISTINCT FROM $2 OR financial_sync_count < $3)
		RETURNING financial_sync_count
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, id, monthKey, limit, state.LastSyncAt).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume sync quota: %w", err)
	}
	return count, true, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var calendarToken, accountID, sessionID, syncMonth sql.NullString
	var lastSyncAt sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.NotificationLeadDays, &u.Plan, &u.SubscriptionStatus,
		&calendarToken, &accountID, &sessionID,
		&syncMonth, &u.FinancialSyncCount, &lastSyncAt,
	)
	if err != nil {
		return nil, err
	}

	if calendarToken.Valid {
		u.CalendarToken = &calendarToken.String
	}
	if accountID.Valid {
		u.FinancialAccountID = &accountID.String
	}
	if sessionID.Valid {
		u.FinancialSessionID = &sessionID.String
	}
	if syncMonth.Valid {
		u.FinancialSyncMonth = &syncMonth.String
	}
	if lastSyncAt.Valid {
		u.FinancialLastSyncAt = &lastSyncAt.Time
	}
	return &u, nil
}
