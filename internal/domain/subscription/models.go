package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values. Only active subscriptions are matched for reminders,
// counted in spending totals, or exported to the calendar feed.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCancelled = "cancelled"
)

// DefaultCategory is applied when the caller does not pick one.
const DefaultCategory = "Other"

type Subscription struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Name            string          `json:"name"`
	BillingCycle    Cycle           `json:"billing_cycle"`
	StartDate       time.Time       `json:"start_date"`
	NextPaymentDate time.Time       `json:"next_payment_date"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Status          string          `json:"status"`
}

type CreateParams struct {
	Name            string          `json:"name"`
	BillingCycle    Cycle           `json:"billing_cycle"`
	StartDate       time.Time       `json:"start_date"`
	NextPaymentDate time.Time       `json:"next_payment_date"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Status          string          `json:"status"`
}

// Summary aggregates a user's active subscriptions for the dashboard.
// Yearly amounts are spread over twelve months for the monthly figure and
// monthly amounts are annualized for the yearly one.
type Summary struct {
	ActiveCount  int             `json:"active_count"`
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
	YearlyTotal  decimal.Decimal `json:"yearly_total"`
}
