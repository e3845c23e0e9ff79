package engine

import "fmt"

// ValidationError rejects malformed input before it reaches the ledger.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an operation that clashes with current state: a task
// already assigned, or a worker booked over an overlapping window. It is the
// expected outcome of a stale proposal, not a bug; the caller refreshes and
// retries.
type ConflictError struct {
	Msg string
}

func (e ConflictError) Error() string { return e.Msg }

func conflictf(format string, args ...any) error {
	return ConflictError{Msg: fmt.Sprintf(format, args...)}
}
