package adapter

import "context"

// JobDispatcher hands a committed job over to the generation workers.
// A nil error means the job id was durably enqueued.
type JobDispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// JobQueue is the consumer side of the hand-off.
type JobQueue interface {
	JobDispatcher
	// Pop blocks up to the implementation's poll timeout and returns "" when idle.
	Pop(ctx context.Context) (jobID string, err error)
}
