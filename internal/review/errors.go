package review

import "errors"

var (
	// ErrUnresolvedPauses means the submit gate is open: at least one pause
	// request for an in-scope job is still pending.
	ErrUnresolvedPauses = errors.New("unresolved pause requests")

	// ErrAlreadySubmitted means the review for this (date, shift) was
	// already submitted. Submission is one-way.
	ErrAlreadySubmitted = errors.New("review already submitted")

	// ErrInvalidShift means the shift is not a known value.
	ErrInvalidShift = errors.New("unknown shift")
)
