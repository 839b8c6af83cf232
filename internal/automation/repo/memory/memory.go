// Package memory implements the repo interfaces over in-process maps. It is
// the default store for tests and for local/dev runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
)

// Store holds every entity table behind a single mutex (rather than
// per-table locks). Each repository call holds the mutex for that call only;
// see Run.
type Store struct {
	mu sync.Mutex

	processes   map[string]domain.Process
	resources   map[string]domain.Resource
	sessions    map[string]domain.Session
	workqueues  map[string]domain.Workqueue
	workitems   map[string]domain.WorkItem
	triggers    map[string]domain.Trigger
	auditlogs   map[string]domain.AuditLog
	credentials map[string]domain.Credential
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		processes:   make(map[string]domain.Process),
		resources:   make(map[string]domain.Resource),
		sessions:    make(map[string]domain.Session),
		workqueues:  make(map[string]domain.Workqueue),
		workitems:   make(map[string]domain.WorkItem),
		triggers:    make(map[string]domain.Trigger),
		auditlogs:   make(map[string]domain.AuditLog),
		credentials: make(map[string]domain.Credential),
	}
}

func newID() string { return uuid.NewString() }

// Run implements uow.Factory. Each individual repository call below takes
// s.mu for the duration of that single call (not for the whole of fn): the
// in-memory store has no real transaction log to roll back, so "atomicity"
// here means each repository operation is atomic, and fn is expected (like
// every repository caller in this codebase) to treat a mid-fn error as
// "stop, don't apply further mutations" rather than relying on rollback.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repo.Repositories) error) error {
	return fn(ctx, s.Repos())
}

// Repos builds a Repositories view over the store.
func (s *Store) Repos() repo.Repositories {
	return repo.Repositories{
		Processes:   &processRepo{s: s},
		Resources:   &resourceRepo{s: s},
		Sessions:    &sessionRepo{s: s},
		Workqueues:  &workqueueRepo{s: s},
		WorkItems:   &workItemRepo{s: s},
		Triggers:    &triggerRepo{s: s},
		AuditLogs:   &auditLogRepo{s: s},
		Credentials: &credentialRepo{s: s},
	}
}

func sortByCreatedAt[T any](items []T, at func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool { return at(items[i]).Before(at(items[j])) })
}
