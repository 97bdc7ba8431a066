package tracking

import "errors"

// Sentinel errors returned by the state machine. Callers match with
// errors.Is; every failure leaves prior state intact and is safe to retry
// with corrected input.
var (
	// ErrInvalidTransition means the requested action is not legal from the
	// record's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadyResolved means a pause decision was already made for the entry.
	ErrAlreadyResolved = errors.New("pause request already resolved")

	// ErrInvalidReason means the pause reason category is not a known value.
	ErrInvalidReason = errors.New("unknown reason category")

	// ErrNotFound means the job, tracking record, or pause request does not exist.
	ErrNotFound = errors.New("not found")
)
