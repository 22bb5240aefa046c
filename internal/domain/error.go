package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidAmount      = errors.New("amount below minimum charge")
	ErrUserNotFound       = errors.New("user not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrOwnershipMismatch  = errors.New("payment belongs to a different user")
	ErrPaymentNotComplete = errors.New("payment not completed")
	ErrNotPaid            = errors.New("no payment found for this job")
	ErrLockNotAcquired    = errors.New("lock already held")

	// Storage plumbing errors
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// ProviderError carries a failure raised by the payment provider. Its message is
// safe to surface to clients.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error (%s): %s", e.Code, e.Message)
	}
	return "provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a ProviderError with the given client-facing message.
func NewProviderError(code, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

// IsProviderError reports whether err (or anything it wraps) is a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
