package domain

import "time"

// WorkItemStatus is the lifecycle state of a WorkItem.
type WorkItemStatus string

const (
	WorkItemNew               WorkItemStatus = "NEW"
	WorkItemInProgress        WorkItemStatus = "IN_PROGRESS"
	WorkItemCompleted         WorkItemStatus = "COMPLETED"
	WorkItemFailed            WorkItemStatus = "FAILED"
	WorkItemPendingUserAction WorkItemStatus = "PENDING_USER_ACTION"
)

// Terminal reports whether status is one of the lock-clearing states:
// COMPLETED, FAILED, NEW, PENDING_USER_ACTION.
func (s WorkItemStatus) Terminal() bool {
	return s != WorkItemInProgress
}

// WorkItem is a single unit of input pulled by a Session.
type WorkItem struct {
	ID                  string
	WorkqueueID         string
	Data                map[string]any
	Reference           string
	Locked              bool
	Status              WorkItemStatus
	Message             string
	StartedAt           *time.Time
	WorkDurationSeconds *int64
	Deleted             bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
