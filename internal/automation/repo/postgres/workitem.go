package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type workItemRepo struct{ tx *sqlx.Tx }

const workItemColumns = `id, workqueue_id, data, reference, locked, status, message, started_at, work_duration_seconds, deleted, created_at, updated_at`

func scanWorkItem(row rowScanner) (domain.WorkItem, error) {
	var w domain.WorkItem
	var data []byte
	var startedAt sql.NullTime
	var durationSeconds sql.NullInt64
	if err := row.Scan(&w.ID, &w.WorkqueueID, &data, &w.Reference, &w.Locked, &w.Status, &w.Message, &startedAt, &durationSeconds, &w.Deleted, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return domain.WorkItem{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &w.Data); err != nil {
			return domain.WorkItem{}, err
		}
	}
	if startedAt.Valid {
		w.StartedAt = &startedAt.Time
	}
	if durationSeconds.Valid {
		w.WorkDurationSeconds = &durationSeconds.Int64
	}
	return w, nil
}

func (r *workItemRepo) Get(ctx context.Context, id string) (domain.WorkItem, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = $1`, id)
	w, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkItem{}, domain.ErrNotFound
		}
		return domain.WorkItem{}, err
	}
	if w.Deleted {
		return domain.WorkItem{}, domain.ErrGone
	}
	return w, nil
}

// Create inserts a WorkItem with forced fields {status: NEW, locked: false,
// deleted: false}.
func (r *workItemRepo) Create(ctx context.Context, w domain.WorkItem) (domain.WorkItem, error) {
	if w.ID == "" {
		w.ID = newID()
	}
	data, err := json.Marshal(w.Data)
	if err != nil {
		return domain.WorkItem{}, err
	}
	_, err = r.tx.ExecContext(ctx, `
		INSERT INTO work_items (id, workqueue_id, data, reference, locked, status, message, started_at, work_duration_seconds, deleted, created_at, updated_at)
		VALUES ($1,$2,$3,$4,false,'NEW',$5,NULL,NULL,false,now(),now())
	`, w.ID, w.WorkqueueID, data, w.Reference, w.Message)
	if err != nil {
		return domain.WorkItem{}, err
	}
	return r.Get(ctx, w.ID)
}

func (r *workItemRepo) Update(ctx context.Context, w domain.WorkItem) (domain.WorkItem, error) {
	data, err := json.Marshal(w.Data)
	if err != nil {
		return domain.WorkItem{}, err
	}
	result, err := r.tx.ExecContext(ctx, `
		UPDATE work_items
		SET workqueue_id=$2, data=$3, reference=$4, locked=$5, status=$6, message=$7, started_at=$8, work_duration_seconds=$9, deleted=$10, updated_at=now()
		WHERE id = $1
	`, w.ID, w.WorkqueueID, data, w.Reference, w.Locked, w.Status, w.Message, w.StartedAt, w.WorkDurationSeconds, w.Deleted)
	if err != nil {
		return domain.WorkItem{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.WorkItem{}, domain.ErrNotFound
	}
	row := r.tx.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = $1`, w.ID)
	return scanWorkItem(row)
}

func (r *workItemRepo) Delete(ctx context.Context, id string) error {
	result, err := r.tx.ExecContext(ctx, `DELETE FROM work_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimNext selects the oldest NEW, unlocked item in the queue under
// FOR UPDATE SKIP LOCKED and atomically flips it to locked=true,
// status=IN_PROGRESS, started_at=now. A unique-violation or serialization
// failure surfaced by the driver is reported as domain.ErrContended so
// callers can retry under a fresh transaction.
func (r *workItemRepo) ClaimNext(ctx context.Context, workqueueID string) (domain.WorkItem, bool, error) {
	row := r.tx.QueryRowContext(ctx, `
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE workqueue_id = $1 AND NOT deleted AND NOT locked AND status = 'NEW'
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, workqueueID)
	w, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkItem{}, false, nil
		}
		if isContention(err) {
			return domain.WorkItem{}, false, domain.ErrContended
		}
		return domain.WorkItem{}, false, err
	}

	now := time.Now().UTC()
	result, err := r.tx.ExecContext(ctx, `
		UPDATE work_items SET locked = true, status = 'IN_PROGRESS', started_at = $2, updated_at = now()
		WHERE id = $1 AND NOT locked AND status = 'NEW'
	`, w.ID, now)
	if err != nil {
		if isContention(err) {
			return domain.WorkItem{}, false, domain.ErrContended
		}
		return domain.WorkItem{}, false, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.WorkItem{}, false, domain.ErrContended
	}

	w.Locked = true
	w.Status = domain.WorkItemInProgress
	w.StartedAt = &now
	return w, true, nil
}

func (r *workItemRepo) LookupByReference(ctx context.Context, workqueueID, reference string, status *domain.WorkItemStatus) ([]domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE workqueue_id = $1 AND NOT deleted AND reference = $2`
	args := []any{workqueueID, reference}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WorkItem, 0)
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workItemRepo) Clear(ctx context.Context, workqueueID string, status *domain.WorkItemStatus, olderThan *time.Duration) (int64, error) {
	query := `DELETE FROM work_items WHERE workqueue_id = $1`
	args := []any{workqueueID}
	if status != nil {
		args = append(args, *status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if olderThan != nil {
		args = append(args, time.Now().UTC().Add(-*olderThan))
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	result, err := r.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *workItemRepo) Count(ctx context.Context, workqueueID string, status domain.WorkItemStatus) (int64, error) {
	var n int64
	row := r.tx.QueryRowContext(ctx, `
		SELECT count(*) FROM work_items WHERE workqueue_id = $1 AND NOT deleted AND status = $2
	`, workqueueID, status)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// isContention reports whether err is a PostgreSQL serialization or
// uniqueness conflict that the caller should retry.
func isContention(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "unique_violation", "deadlock_detected":
			return true
		}
	}
	return false
}
