package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type credentialRepo struct{ tx *sqlx.Tx }

const credentialColumns = `id, name, data, deleted, created_at, updated_at`

func scanCredential(row rowScanner) (domain.Credential, error) {
	var c domain.Credential
	if err := row.Scan(&c.ID, &c.Name, &c.Data, &c.Deleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Credential{}, err
	}
	return c, nil
}

func (r *credentialRepo) Get(ctx context.Context, id string) (domain.Credential, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	if c.Deleted {
		return domain.Credential{}, domain.ErrGone
	}
	return c, nil
}

func (r *credentialRepo) GetByName(ctx context.Context, name string) (domain.Credential, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE name = $1 AND NOT deleted`, name)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return c, nil
}

func (r *credentialRepo) Create(ctx context.Context, c domain.Credential) (domain.Credential, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO credentials (id, name, data, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now(),now())
	`, c.ID, c.Name, c.Data, c.Deleted)
	if err != nil {
		return domain.Credential{}, err
	}
	return r.Get(ctx, c.ID)
}

func (r *credentialRepo) Update(ctx context.Context, c domain.Credential) (domain.Credential, error) {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE credentials SET name=$2, data=$3, deleted=$4, updated_at=now()
		WHERE id = $1
	`, c.ID, c.Name, c.Data, c.Deleted)
	if err != nil {
		return domain.Credential{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Credential{}, domain.ErrNotFound
	}
	row := r.tx.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, c.ID)
	return scanCredential(row)
}

func (r *credentialRepo) Delete(ctx context.Context, id string) error {
	result, err := r.tx.ExecContext(ctx, `UPDATE credentials SET deleted = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
