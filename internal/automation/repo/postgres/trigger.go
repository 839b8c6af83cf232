package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type triggerRepo struct{ tx *sqlx.Tx }

const triggerColumns = `id, process_id, type, cron, date, workqueue_id, workqueue_scale_up_threshold, workqueue_resource_limit, parameters, enabled, deleted, last_triggered, created_at, updated_at`

func scanTrigger(row rowScanner) (domain.Trigger, error) {
	var t domain.Trigger
	var date sql.NullTime
	var workqueueID sql.NullString
	var lastTriggered sql.NullTime
	if err := row.Scan(&t.ID, &t.ProcessID, &t.Type, &t.Cron, &date, &workqueueID, &t.WorkqueueScaleUpThreshold, &t.WorkqueueResourceLimit, &t.Parameters, &t.Enabled, &t.Deleted, &lastTriggered, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Trigger{}, err
	}
	if date.Valid {
		t.Date = &date.Time
	}
	if workqueueID.Valid {
		t.WorkqueueID = &workqueueID.String
	}
	if lastTriggered.Valid {
		t.LastTriggered = &lastTriggered.Time
	}
	return t, nil
}

func (r *triggerRepo) Get(ctx context.Context, id string) (domain.Trigger, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+triggerColumns+` FROM triggers WHERE id = $1`, id)
	t, err := scanTrigger(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Trigger{}, domain.ErrNotFound
		}
		return domain.Trigger{}, err
	}
	if t.Deleted {
		return domain.Trigger{}, domain.ErrGone
	}
	return t, nil
}

func (r *triggerRepo) Create(ctx context.Context, t domain.Trigger) (domain.Trigger, error) {
	if err := t.ValidateShape(); err != nil {
		return domain.Trigger{}, err
	}
	if t.ID == "" {
		t.ID = newID()
	}
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO triggers (id, process_id, type, cron, date, workqueue_id, workqueue_scale_up_threshold, workqueue_resource_limit, parameters, enabled, deleted, last_triggered, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
	`, t.ID, t.ProcessID, t.Type, t.Cron, t.Date, t.WorkqueueID, t.WorkqueueScaleUpThreshold, t.WorkqueueResourceLimit, t.Parameters, t.Enabled, t.Deleted, t.LastTriggered)
	if err != nil {
		return domain.Trigger{}, err
	}
	return r.Get(ctx, t.ID)
}

func (r *triggerRepo) Update(ctx context.Context, t domain.Trigger) (domain.Trigger, error) {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE triggers
		SET process_id=$2, type=$3, cron=$4, date=$5, workqueue_id=$6, workqueue_scale_up_threshold=$7,
		    workqueue_resource_limit=$8, parameters=$9, enabled=$10, deleted=$11, last_triggered=$12, updated_at=now()
		WHERE id = $1
	`, t.ID, t.ProcessID, t.Type, t.Cron, t.Date, t.WorkqueueID, t.WorkqueueScaleUpThreshold, t.WorkqueueResourceLimit, t.Parameters, t.Enabled, t.Deleted, t.LastTriggered)
	if err != nil {
		return domain.Trigger{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Trigger{}, domain.ErrNotFound
	}
	// Re-scan directly: Update may legitimately move a row into the
	// soft-deleted state (one-shot date triggers), which Get reports as gone.
	row := r.tx.QueryRowContext(ctx, `SELECT `+triggerColumns+` FROM triggers WHERE id = $1`, t.ID)
	return scanTrigger(row)
}

func (r *triggerRepo) GetAll(ctx context.Context, includeDeleted bool) ([]domain.Trigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM triggers`
	if !includeDeleted {
		query += ` WHERE NOT deleted`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Trigger, 0)
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
