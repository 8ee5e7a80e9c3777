package notification

import (
	"fmt"
	"time"

	"tracksub/internal/domain/subscription"
)

// Reminder is a composed upcoming-payment email.
type Reminder struct {
	To      string
	Subject string
	Body    string
}

// NewReminder builds the email for a subscription charging in daysAhead days.
func NewReminder(to string, sub *subscription.Subscription, daysAhead int) Reminder {
	due := sub.NextPaymentDate.Format("January 2, 2006")
	return Reminder{
		To:      to,
		Subject: fmt.Sprintf("Subscription Reminder: %s", sub.Name),
		Body: fmt.Sprintf(
			"Your %s subscription payment of %s is due on %s (%s).\n\nBilling cycle: %s",
			sub.Name, sub.Amount.StringFixed(2), due, inDays(daysAhead), sub.BillingCycle,
		),
	}
}

func inDays(n int) string {
	switch n {
	case 0:
		return "today"
	case 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", n)
	}
}

// midnightUTC truncates t to its UTC calendar date.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
