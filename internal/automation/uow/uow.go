// Package uow defines the boundary for multi-step mutations: a unit of work
// hands the wrapped function a set of repositories. The Postgres store binds
// them to one transaction, committing when the function returns nil and
// rolling back on error; the in-memory store applies each repository call
// immediately and does not roll back.
package uow

import (
	"context"

	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
)

// Factory opens a new unit of work bound to its own transaction (or, for the
// in-memory store, repositories that take the store's mutex per call).
type Factory interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repo.Repositories) error) error
}
