package domain

import "time"

// Workqueue is a named container of work items.
type Workqueue struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
