package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"tracksub/internal/domain/subscription"
	"tracksub/internal/domain/user"
	"tracksub/internal/shared/telemetry"
)

// Sender delivers a single email. It reports success rather than returning
// an error so a flaky mail provider never aborts a dispatch run.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) bool
}

// Dispatcher walks all users and sends payment reminders for active
// subscriptions whose next payment date is exactly the user's lead time away.
type Dispatcher struct {
	users  user.Repository
	subs   subscription.Repository
	sender Sender
}

func NewDispatcher(users user.Repository, subs subscription.Repository, sender Sender) *Dispatcher {
	return &Dispatcher{users: users, subs: subs, sender: sender}
}

// Run performs one dispatch pass for the given calendar date and returns the
// number of reminders delivered. A failure for one user is logged and does
// not stop the pass; a reminder repeats on later runs until the subscription's
// next payment date advances.
func (d *Dispatcher) Run(ctx context.Context, today time.Time) (int, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}

	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		n, err := d.RunForUser(ctx, u, today)
		if err != nil {
			log.Printf("reminder pass: listing due subscriptions for user %d: %v", u.ID, err)
			continue
		}
		sent += n
	}

	log.Printf("reminder pass complete: %d sent", sent)
	return sent, nil
}

// RunForUser sends the reminders due for a single user. The scheduler wraps
// this in per-user jobs so one slow mailbox cannot stall the whole pass.
func (d *Dispatcher) RunForUser(ctx context.Context, u *user.User, today time.Time) (int, error) {
	lead := u.LeadDays()
	target := midnightUTC(today).AddDate(0, 0, lead)

	due, err := d.subs.ListActiveDueOn(ctx, u.ID, target)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range due {
		r := NewReminder(u.Email, sub, lead)
		if d.sender.Send(ctx, r.To, r.Subject, r.Body) {
			sent++
			telemetry.RemindersSent.Inc()
		} else {
			telemetry.RemindersFailed.Inc()
			log.Printf("reminder pass: send failed for user %d subscription %d", u.ID, sub.ID)
		}
	}
	return sent, nil
}
