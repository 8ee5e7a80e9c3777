package subscription

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a subscription does not exist or belongs to
// another user.
var ErrNotFound = errors.New("subscription not found")

type Repository interface {
	Create(ctx context.Context, userID int64, params CreateParams) (*Subscription, error)
	GetByID(ctx context.Context, id, userID int64) (*Subscription, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Subscription, error)
	ListActiveByUserID(ctx context.Context, userID int64) ([]*Subscription, error)
	// ListActiveDueOn returns the user's active subscriptions whose next
	// payment date equals date exactly (calendar-date equality).
	ListActiveDueOn(ctx context.Context, userID int64, date time.Time) ([]*Subscription, error)
	Update(ctx context.Context, id, userID int64, params CreateParams) (*Subscription, error)
	Delete(ctx context.Context, id, userID int64) error
}
