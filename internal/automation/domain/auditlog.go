package domain

import "time"

// AuditLog is an append-only structured event. No update or delete path
// exists for this entity anywhere in the core.
type AuditLog struct {
	ID             string
	SessionID      *string
	WorkItemID     *string
	Message        string
	Level          string
	LoggerName     string
	Module         string
	FunctionName   string
	LineNumber     *int
	ExceptionType  *string
	ExceptionMsg   *string
	ExceptionTrace *string
	StructuredData map[string]any
	EventTimestamp time.Time
}
