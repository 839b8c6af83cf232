package domain

import "time"

// Credential is a named secret bundle. Data is opaque to the core; the
// auth façade is responsible for encrypting it at rest.
type Credential struct {
	ID        string
	Name      string
	Data      []byte
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
