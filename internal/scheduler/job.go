package scheduler

import "context"

// Job is a unit of work executed by the worker pool. Different job types can
// be queued through the same pool (reminder passes, future cleanup jobs).
type Job interface {
	// Execute runs the job. The context carries the pool's cancellation.
	Execute(ctx context.Context) error

	// UserID identifies whose data the job touches, for logging.
	UserID() string

	// Description is a human-readable job label, for logging.
	Description() string
}
