package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type workqueueRepo struct{ tx *sqlx.Tx }

const workqueueColumns = `id, name, description, enabled, deleted, created_at, updated_at`

func scanWorkqueue(row rowScanner) (domain.Workqueue, error) {
	var w domain.Workqueue
	if err := row.Scan(&w.ID, &w.Name, &w.Description, &w.Enabled, &w.Deleted, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return domain.Workqueue{}, err
	}
	return w, nil
}

func (r *workqueueRepo) Get(ctx context.Context, id string) (domain.Workqueue, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+workqueueColumns+` FROM workqueues WHERE id = $1`, id)
	w, err := scanWorkqueue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Workqueue{}, domain.ErrNotFound
		}
		return domain.Workqueue{}, err
	}
	if w.Deleted {
		return domain.Workqueue{}, domain.ErrGone
	}
	return w, nil
}

func (r *workqueueRepo) GetByName(ctx context.Context, name string) (domain.Workqueue, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+workqueueColumns+` FROM workqueues WHERE name = $1`, name)
	w, err := scanWorkqueue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Workqueue{}, domain.ErrNotFound
		}
		return domain.Workqueue{}, err
	}
	return w, nil
}

func (r *workqueueRepo) Create(ctx context.Context, w domain.Workqueue) (domain.Workqueue, error) {
	if w.ID == "" {
		w.ID = newID()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO workqueues (id, name, description, enabled, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now(),now())
	`, w.ID, w.Name, w.Description, w.Enabled, w.Deleted)
	if err != nil {
		return domain.Workqueue{}, err
	}
	return r.Get(ctx, w.ID)
}

func (r *workqueueRepo) Update(ctx context.Context, w domain.Workqueue) (domain.Workqueue, error) {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE workqueues SET name=$2, description=$3, enabled=$4, deleted=$5, updated_at=now()
		WHERE id = $1
	`, w.ID, w.Name, w.Description, w.Enabled, w.Deleted)
	if err != nil {
		return domain.Workqueue{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Workqueue{}, domain.ErrNotFound
	}
	row := r.tx.QueryRowContext(ctx, `SELECT `+workqueueColumns+` FROM workqueues WHERE id = $1`, w.ID)
	return scanWorkqueue(row)
}

func (r *workqueueRepo) GetAll(ctx context.Context, includeDeleted bool) ([]domain.Workqueue, error) {
	query := `SELECT ` + workqueueColumns + ` FROM workqueues`
	if !includeDeleted {
		query += ` WHERE NOT deleted`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Workqueue, 0)
	for rows.Next() {
		w, err := scanWorkqueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
