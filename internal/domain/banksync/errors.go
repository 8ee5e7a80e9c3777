package banksync

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanRequired is returned when a free-plan user calls a pro feature.
	ErrPlanRequired = errors.New("bank sync requires the pro plan")

	// ErrSyncLimitExceeded is returned once the monthly sync quota is spent.
	ErrSyncLimitExceeded = errors.New("monthly sync limit reached")

	// ErrNotLinked is returned when no bank account is attached to the user.
	ErrNotLinked = errors.New("no bank account linked")
)

// FeedError wraps a failure from the transaction feed provider so handlers
// can map provider outages to an upstream-error response.
type FeedError struct {
	Op  string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("transaction feed %s: %v", e.Op, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}
