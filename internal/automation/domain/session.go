package domain

import "time"

// SessionStatus is the session state machine's state.
type SessionStatus string

const (
	SessionNew        SessionStatus = "NEW"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionFailed     SessionStatus = "FAILED"
)

// Terminal reports whether the status accepts no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// allowedSessionTransitions is the enforced worker-facing transition set:
// NEW->IN_PROGRESS, IN_PROGRESS->COMPLETED, IN_PROGRESS->FAILED.
var allowedSessionTransitions = map[SessionStatus]map[SessionStatus]bool{
	SessionNew:        {SessionInProgress: true},
	SessionInProgress: {SessionCompleted: true, SessionFailed: true},
}

// ValidSessionTransition reports whether a worker-initiated status update
// from -> to is permitted.
func ValidSessionTransition(from, to SessionStatus) bool {
	return allowedSessionTransitions[from][to]
}

// Session is one execution of a Process on a Resource.
type Session struct {
	ID            string
	ProcessID     string
	ResourceID    *string
	DispatchedAt  *time.Time
	Status        SessionStatus
	Parameters    string
	StopRequested bool
	Deleted       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
