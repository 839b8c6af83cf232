package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type processRepo struct{ tx *sqlx.Tx }

func (r *processRepo) Get(ctx context.Context, id string) (domain.Process, error) {
	var p domain.Process
	var credentialID sql.NullString
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, name, requirements, target_type, target_source, credential_id, deleted, created_at, updated_at
		FROM processes WHERE id = $1
	`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Requirements, &p.TargetType, &p.TargetSource, &credentialID, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Process{}, domain.ErrNotFound
		}
		return domain.Process{}, err
	}
	if credentialID.Valid {
		p.CredentialID = &credentialID.String
	}
	if p.Deleted {
		return domain.Process{}, domain.ErrGone
	}
	return p, nil
}

func (r *processRepo) Create(ctx context.Context, p domain.Process) (domain.Process, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO processes (id, name, requirements, target_type, target_source, credential_id, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, p.ID, p.Name, p.Requirements, p.TargetType, p.TargetSource, p.CredentialID, p.Deleted)
	if err != nil {
		return domain.Process{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *processRepo) Update(ctx context.Context, p domain.Process) (domain.Process, error) {
	res, err := r.tx.ExecContext(ctx, `
		UPDATE processes SET name=$2, requirements=$3, target_type=$4, target_source=$5, credential_id=$6, deleted=$7, updated_at=now()
		WHERE id = $1
	`, p.ID, p.Name, p.Requirements, p.TargetType, p.TargetSource, p.CredentialID, p.Deleted)
	if err != nil {
		return domain.Process{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Process{}, domain.ErrNotFound
	}
	return r.getAny(ctx, p.ID)
}

// getAny fetches a process regardless of its deleted flag, for returning
// the post-update row when Update soft-deletes.
func (r *processRepo) getAny(ctx context.Context, id string) (domain.Process, error) {
	var p domain.Process
	var credentialID sql.NullString
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, name, requirements, target_type, target_source, credential_id, deleted, created_at, updated_at
		FROM processes WHERE id = $1
	`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Requirements, &p.TargetType, &p.TargetSource, &credentialID, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Process{}, domain.ErrNotFound
		}
		return domain.Process{}, err
	}
	if credentialID.Valid {
		p.CredentialID = &credentialID.String
	}
	return p, nil
}

func (r *processRepo) Delete(ctx context.Context, id string) error {
	res, err := r.tx.ExecContext(ctx, `UPDATE processes SET deleted = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *processRepo) GetAll(ctx context.Context, includeDeleted bool) ([]domain.Process, error) {
	query := `SELECT id, name, requirements, target_type, target_source, credential_id, deleted, created_at, updated_at FROM processes`
	if !includeDeleted {
		query += ` WHERE NOT deleted`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Process, 0)
	for rows.Next() {
		var p domain.Process
		var credentialID sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Requirements, &p.TargetType, &p.TargetSource, &credentialID, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if credentialID.Valid {
			p.CredentialID = &credentialID.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
