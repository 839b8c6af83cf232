package domain

import "time"

// Resource is a worker machine. Available is derived in spirit ("non-deleted
// and no active session") but stored as a concrete field that the registry,
// session lifecycle, and dispatcher keep consistent with that invariant
// rather than recomputing it on every read.
type Resource struct {
	ID           string
	Fqdn         string
	Name         string
	Capabilities string
	LastSeen     time.Time
	Available    bool
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
