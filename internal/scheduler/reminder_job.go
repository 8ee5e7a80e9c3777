package scheduler

import (
	"context"
	"fmt"
	"time"

	"tracksub/internal/domain/notification"
	"tracksub/internal/domain/user"
)

// ReminderJob runs one user's reminder pass for today's date.
type ReminderJob struct {
	dispatcher *notification.Dispatcher
	user       *user.User
}

func NewReminderJob(dispatcher *notification.Dispatcher, u *user.User) *ReminderJob {
	return &ReminderJob{dispatcher: dispatcher, user: u}
}

func (j *ReminderJob) Execute(ctx context.Context) error {
	_, err := j.dispatcher.RunForUser(ctx, j.user, time.Now().UTC())
	return err
}

func (j *ReminderJob) UserID() string {
	return fmt.Sprintf("%d", j.user.ID)
}

func (j *ReminderJob) Description() string {
	return "payment reminder pass"
}

// ReminderJobProvider builds one ReminderJob per registered user. The
// scheduler calls it at each configured time of day.
func ReminderJobProvider(users user.Repository, dispatcher *notification.Dispatcher) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		all, err := users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing users for reminder jobs: %w", err)
		}

		jobs := make([]Job, 0, len(all))
		for _, u := range all {
			jobs = append(jobs, NewReminderJob(dispatcher, u))
		}
		return jobs, nil
	}
}
