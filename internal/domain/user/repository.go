package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned on registration with an already-used email.
var ErrEmailTaken = errors.New("email already registered")

type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByCalendarToken(ctx context.Context, token string) (*User, error)
	List(ctx context.Context) ([]*User, error)

	UpdateLeadDays(ctx context.Context, id int64, days int) error
	UpdatePlan(ctx context.Context, id int64, plan, subscriptionStatus string) error
	SetCalendarToken(ctx context.Context, id int64, token string) error
	AttachFinancialAccount(ctx context.Context, id int64, accountID, sessionID string) error

	// ConsumeSyncQuota atomically increments the monthly sync counter for
	// monthKey, resetting it to 1 when the stored month differs, and returns
	// the post-update count. Returns false, mutating nothing, when the
	// counter for monthKey has already reached limit. state.LastSyncAt, when
	// non-nil, is persisted in the same statement.
	ConsumeSyncQuota(ctx context.Context, id int64, monthKey string, limit int, state SyncState) (int, bool, error)
}
