package domain

import "errors"

// Error taxonomy used throughout the core. Every repository and service
// method returns one of these sentinels unwrapped, or a plain Go error for
// anything unexpected, which callers treat as Internal.
var (
	// ErrNotFound indicates the target entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGone indicates the entity exists but has been soft-deleted.
	ErrGone = errors.New("gone")
	// ErrInvalidTransition indicates a state-machine violation.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalid indicates a request-level validation failure.
	ErrInvalid = errors.New("invalid")
	// ErrContended indicates a claim lost a race and should be retried.
	ErrContended = errors.New("contended")
)
