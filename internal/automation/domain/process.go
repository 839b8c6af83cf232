package domain

import "time"

// Process is a runnable definition: what to run (target) and what it needs
// (requirements). Targets are immutable across a run.
type Process struct {
	ID           string
	Name         string
	Requirements string
	TargetType   string
	TargetSource string
	CredentialID *string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
