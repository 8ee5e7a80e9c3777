package user

import "time"

// Plan values. Pro unlocks bank sync and calendar export.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// DefaultLeadDays is used when a user has no stored reminder preference.
const DefaultLeadDays = 7

type User struct {
	ID                   int64      `json:"id"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	NotificationLeadDays int        `json:"notification_lead_days"`
	Plan                 string     `json:"plan"`
	SubscriptionStatus   string     `json:"subscription_status"`
	CalendarToken        *string    `json:"-"`
	FinancialAccountID   *string    `json:"financial_account_id"`
	FinancialSessionID   *string    `json:"-"`
	FinancialSyncMonth   *string    `json:"financial_sync_month"`
	FinancialSyncCount   int        `json:"financial_sync_count"`
	FinancialLastSyncAt  *time.Time `json:"financial_last_sync_at"`
}

// IsPro reports whether the user is on the pro plan.
func (u *User) IsPro() bool {
	return u.Plan == PlanPro
}

// LeadDays returns the reminder lead time, falling back to the default when
// the stored value is unset or outside the 1-90 range.
func (u *User) LeadDays() int {
	if u.NotificationLeadDays < 1 || u.NotificationLeadDays > 90 {
		return DefaultLeadDays
	}
	return u.NotificationLeadDays
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
}

// SyncState carries the bookkeeping written back when a sync consumes quota.
type SyncState struct {
	LastSyncAt *time.Time
}
