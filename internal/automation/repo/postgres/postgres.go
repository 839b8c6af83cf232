// Package postgres implements the repo interfaces on PostgreSQL, scoping
// every unit of work to a single transaction.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
)

func newID() string { return uuid.NewString() }

func timeNowUTC() time.Time { return time.Now().UTC() }

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting the
// per-entity scan helpers below serve single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...any) error
}

// Factory implements uow.Factory against a PostgreSQL database, wrapping
// each call to Run in its own transaction.
type Factory struct {
	db *sqlx.DB
}

// NewFactory wraps an already-open *sqlx.DB.
func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{db: db}
}

// Run implements uow.Factory: begins a transaction, builds a Repositories
// view bound to it, and commits on success or rolls back on any error (a
// panic in fn is not recovered; the deferred rollback runs as it unwinds).
func (f *Factory) Run(ctx context.Context, fn func(ctx context.Context, repos repo.Repositories) error) error {
	tx, err := f.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func reposFor(tx *sqlx.Tx) repo.Repositories {
	return repo.Repositories{
		Processes:   &processRepo{tx: tx},
		Resources:   &resourceRepo{tx: tx},
		Sessions:    &sessionRepo{tx: tx},
		Workqueues:  &workqueueRepo{tx: tx},
		WorkItems:   &workItemRepo{tx: tx},
		Triggers:    &triggerRepo{tx: tx},
		AuditLogs:   &auditLogRepo{tx: tx},
		Credentials: &credentialRepo{tx: tx},
	}
}
