package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type resourceRepo struct{ tx *sqlx.Tx }

func scanResource(row rowScanner) (domain.Resource, error) {
	var res domain.Resource
	if err := row.Scan(&res.ID, &res.Fqdn, &res.Name, &res.Capabilities, &res.LastSeen, &res.Available, &res.Deleted, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return domain.Resource{}, err
	}
	return res, nil
}

func (r *resourceRepo) Get(ctx context.Context, id string) (domain.Resource, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, fqdn, name, capabilities, last_seen, available, deleted, created_at, updated_at
		FROM resources WHERE id = $1
	`, id)
	res, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Resource{}, domain.ErrNotFound
		}
		return domain.Resource{}, err
	}
	if res.Deleted {
		return domain.Resource{}, domain.ErrGone
	}
	return res, nil
}

func (r *resourceRepo) GetByFqdn(ctx context.Context, fqdn string) (domain.Resource, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, fqdn, name, capabilities, last_seen, available, deleted, created_at, updated_at
		FROM resources WHERE fqdn = $1
	`, fqdn)
	res, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Resource{}, domain.ErrNotFound
		}
		return domain.Resource{}, err
	}
	return res, nil
}

func (r *resourceRepo) Create(ctx context.Context, res domain.Resource) (domain.Resource, error) {
	if res.ID == "" {
		res.ID = newID()
	}
	if res.LastSeen.IsZero() {
		res.LastSeen = timeNowUTC()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO resources (id, fqdn, name, capabilities, last_seen, available, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, res.ID, res.Fqdn, res.Name, res.Capabilities, res.LastSeen, res.Available, res.Deleted)
	if err != nil {
		return domain.Resource{}, err
	}
	return r.Get(ctx, res.ID)
}

func (r *resourceRepo) Update(ctx context.Context, res domain.Resource) (domain.Resource, error) {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE resources
		SET fqdn=$2, name=$3, capabilities=$4, last_seen=$5, available=$6, deleted=$7, updated_at=now()
		WHERE id = $1
	`, res.ID, res.Fqdn, res.Name, res.Capabilities, res.LastSeen, res.Available, res.Deleted)
	if err != nil {
		return domain.Resource{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Resource{}, domain.ErrNotFound
	}
	// Re-scan directly: the availability sweep updates rows into the
	// soft-deleted state, which Get reports as gone.
	row := r.tx.QueryRowContext(ctx, `
		SELECT id, fqdn, name, capabilities, last_seen, available, deleted, created_at, updated_at
		FROM resources WHERE id = $1
	`, res.ID)
	return scanResource(row)
}

func (r *resourceRepo) GetAll(ctx context.Context, includeDeleted bool) ([]domain.Resource, error) {
	query := `SELECT id, fqdn, name, capabilities, last_seen, available, deleted, created_at, updated_at FROM resources`
	if !includeDeleted {
		query += ` WHERE NOT deleted`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// GetAvailableResources returns non-deleted resources with no active
// (NEW or IN_PROGRESS) session attached.
func (r *resourceRepo) GetAvailableResources(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT res.id, res.fqdn, res.name, res.capabilities, res.last_seen, res.available, res.deleted, res.created_at, res.updated_at
		FROM resources res
		WHERE NOT res.deleted
		AND NOT EXISTS (
			SELECT 1 FROM sessions s
			WHERE s.resource_id = res.id AND NOT s.deleted AND s.status IN ('NEW', 'IN_PROGRESS')
		)
		ORDER BY res.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
