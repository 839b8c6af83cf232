package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type sessionRepo struct{ tx *sqlx.Tx }

func scanSession(row rowScanner) (domain.Session, error) {
	var s domain.Session
	var resourceID sql.NullString
	var dispatchedAt sql.NullTime
	if err := row.Scan(&s.ID, &s.ProcessID, &resourceID, &dispatchedAt, &s.Status, &s.Parameters, &s.StopRequested, &s.Deleted, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.Session{}, err
	}
	if resourceID.Valid {
		s.ResourceID = &resourceID.String
	}
	if dispatchedAt.Valid {
		s.DispatchedAt = &dispatchedAt.Time
	}
	return s, nil
}

const sessionColumns = `id, process_id, resource_id, dispatched_at, status, parameters, stop_requested, deleted, created_at, updated_at`

func (r *sessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	if s.Deleted {
		return domain.Session{}, domain.ErrGone
	}
	return s, nil
}

func (r *sessionRepo) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Status == "" {
		s.Status = domain.SessionNew
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO sessions (id, process_id, resource_id, dispatched_at, status, parameters, stop_requested, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
	`, s.ID, s.ProcessID, s.ResourceID, s.DispatchedAt, s.Status, s.Parameters, s.StopRequested, s.Deleted)
	if err != nil {
		return domain.Session{}, err
	}
	return r.Get(ctx, s.ID)
}

func (r *sessionRepo) Update(ctx context.Context, s domain.Session) (domain.Session, error) {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE sessions
		SET process_id=$2, resource_id=$3, dispatched_at=$4, status=$5, parameters=$6, stop_requested=$7, deleted=$8, updated_at=now()
		WHERE id = $1
	`, s.ID, s.ProcessID, s.ResourceID, s.DispatchedAt, s.Status, s.Parameters, s.StopRequested, s.Deleted)
	if err != nil {
		return domain.Session{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	row := r.tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, s.ID)
	return scanSession(row)
}

func (r *sessionRepo) GetAll(ctx context.Context, includeDeleted bool) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if !includeDeleted {
		query += ` WHERE NOT deleted`
	}
	query += ` ORDER BY created_at ASC`
	return r.query(ctx, query)
}

func (r *sessionRepo) GetByResourceID(ctx context.Context, resourceID string) (domain.Session, bool, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE resource_id = $1 AND NOT deleted AND status IN ('NEW', 'IN_PROGRESS')
		ORDER BY created_at ASC LIMIT 1
	`, resourceID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, err
	}
	return s, true, nil
}

func (r *sessionRepo) GetNewSessions(ctx context.Context) ([]domain.Session, error) {
	return r.query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE NOT deleted AND status = 'NEW' ORDER BY created_at ASC`)
}

func (r *sessionRepo) GetActiveSessions(ctx context.Context) ([]domain.Session, error) {
	return r.query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE NOT deleted AND status IN ('NEW', 'IN_PROGRESS') ORDER BY created_at ASC`)
}

func (r *sessionRepo) query(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
