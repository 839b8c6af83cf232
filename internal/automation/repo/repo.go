// Package repo defines the abstract repository layer: per-entity CRUD plus
// a handful of domain queries. Implementations bind every repository in a
// Repositories bundle to a single unit of work.
package repo

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

// ProcessRepository persists Process entities.
type ProcessRepository interface {
	Get(ctx context.Context, id string) (domain.Process, error)
	Create(ctx context.Context, p domain.Process) (domain.Process, error)
	Update(ctx context.Context, p domain.Process) (domain.Process, error)
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, includeDeleted bool) ([]domain.Process, error)
}

// ResourceRepository persists Resource entities and the derived queries C2
// and C6 depend on.
type ResourceRepository interface {
	Get(ctx context.Context, id string) (domain.Resource, error)
	GetByFqdn(ctx context.Context, fqdn string) (domain.Resource, error)
	Create(ctx context.Context, r domain.Resource) (domain.Resource, error)
	Update(ctx context.Context, r domain.Resource) (domain.Resource, error)
	GetAll(ctx context.Context, includeDeleted bool) ([]domain.Resource, error)
	// GetAvailableResources returns non-deleted resources with no active
	// session attached.
	GetAvailableResources(ctx context.Context) ([]domain.Resource, error)
}

// SessionRepository persists Session entities.
type SessionRepository interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Create(ctx context.Context, s domain.Session) (domain.Session, error)
	Update(ctx context.Context, s domain.Session) (domain.Session, error)
	GetAll(ctx context.Context, includeDeleted bool) ([]domain.Session, error)
	// GetByResourceID returns the first non-terminal session attached to r.
	GetByResourceID(ctx context.Context, resourceID string) (domain.Session, bool, error)
	// GetNewSessions returns NEW sessions ordered by created_at ascending.
	GetNewSessions(ctx context.Context) ([]domain.Session, error)
	// GetActiveSessions returns NEW|IN_PROGRESS sessions ordered by
	// created_at ascending.
	GetActiveSessions(ctx context.Context) ([]domain.Session, error)
}

// WorkqueueRepository persists Workqueue entities.
type WorkqueueRepository interface {
	Get(ctx context.Context, id string) (domain.Workqueue, error)
	GetByName(ctx context.Context, name string) (domain.Workqueue, error)
	Create(ctx context.Context, w domain.Workqueue) (domain.Workqueue, error)
	Update(ctx context.Context, w domain.Workqueue) (domain.Workqueue, error)
	GetAll(ctx context.Context, includeDeleted bool) ([]domain.Workqueue, error)
}

// WorkItemRepository persists WorkItem entities and exposes the atomic
// claim primitive the queue service's pull path is built on.
type WorkItemRepository interface {
	Get(ctx context.Context, id string) (domain.WorkItem, error)
	Create(ctx context.Context, w domain.WorkItem) (domain.WorkItem, error)
	Update(ctx context.Context, w domain.WorkItem) (domain.WorkItem, error)
	Delete(ctx context.Context, id string) error
	// ClaimNext selects the oldest NEW, unlocked item in the queue under a
	// row-level lock that skips already-locked rows and atomically flips it
	// to locked=true, status=IN_PROGRESS, started_at=now. Returns
	// (zero, false, nil) if none is eligible, or domain.ErrContended if the
	// underlying store signals a uniqueness/serialization conflict.
	ClaimNext(ctx context.Context, workqueueID string) (domain.WorkItem, bool, error)
	// LookupByReference returns items matching reference exactly, optionally
	// filtered by status, ordered by created_at descending.
	LookupByReference(ctx context.Context, workqueueID, reference string, status *domain.WorkItemStatus) ([]domain.WorkItem, error)
	// Clear deletes items in a queue, optionally filtered by status and/or
	// age (both filters AND-combined).
	Clear(ctx context.Context, workqueueID string, status *domain.WorkItemStatus, olderThan *time.Duration) (int64, error)
	// Count returns the number of items in the queue with the given status.
	Count(ctx context.Context, workqueueID string, status domain.WorkItemStatus) (int64, error)
}

// TriggerRepository persists Trigger entities.
type TriggerRepository interface {
	Get(ctx context.Context, id string) (domain.Trigger, error)
	Create(ctx context.Context, t domain.Trigger) (domain.Trigger, error)
	Update(ctx context.Context, t domain.Trigger) (domain.Trigger, error)
	GetAll(ctx context.Context, includeDeleted bool) ([]domain.Trigger, error)
}

// AuditLogRepository persists append-only AuditLog entries.
type AuditLogRepository interface {
	Create(ctx context.Context, a domain.AuditLog) (domain.AuditLog, error)
	GetAll(ctx context.Context) ([]domain.AuditLog, error)
}

// CredentialRepository persists Credential entities.
type CredentialRepository interface {
	Get(ctx context.Context, id string) (domain.Credential, error)
	GetByName(ctx context.Context, name string) (domain.Credential, error)
	Create(ctx context.Context, c domain.Credential) (domain.Credential, error)
	Update(ctx context.Context, c domain.Credential) (domain.Credential, error)
	Delete(ctx context.Context, id string) error
}

// Repositories bundles every per-entity repository a unit of work exposes.
type Repositories struct {
	Processes   ProcessRepository
	Resources   ResourceRepository
	Sessions    SessionRepository
	Workqueues  WorkqueueRepository
	WorkItems   WorkItemRepository
	Triggers    TriggerRepository
	AuditLogs   AuditLogRepository
	Credentials CredentialRepository
}
