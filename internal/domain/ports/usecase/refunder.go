package usecase

import "context"

// RefundResult is the outcome of refunding a job.
type RefundResult struct {
	RefundID        string
	Amount          int64 // minor units
	Currency        string
	AlreadyRefunded bool
}

// JobRefunder is the refund operation needed by background workers.
type JobRefunder interface {
	Refund(ctx context.Context, jobID, reason string) (*RefundResult, error)
}
