package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
)

func newMockFactory(t *testing.T) (*Factory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFactory(sqlx.NewDb(db, "postgres")), mock
}

func TestFactoryRunCommitsOnSuccess(t *testing.T) {
	f, mock := newMockFactory(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		require.NotNil(t, repos.Processes)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFactoryRunRollsBackOnError(t *testing.T) {
	f, mock := newMockFactory(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		return context.DeadlineExceeded
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func processRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "requirements", "target_type", "target_source", "credential_id", "deleted", "created_at", "updated_at",
	})
}

func TestProcessRepoCreateAndGet(t *testing.T) {
	f, mock := newMockFactory(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.|\n)* FROM processes WHERE id").
		WillReturnRows(processRows().AddRow("p1", "invoice-bot", "", "python", "git://repo", nil, false, now, now))
	mock.ExpectCommit()

	var created domain.Process
	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		p, err := repos.Processes.Create(ctx, domain.Process{ID: "p1", Name: "invoice-bot", TargetType: "python", TargetSource: "git://repo"})
		created = p
		return err
	})
	require.NoError(t, err)
	require.Equal(t, "invoice-bot", created.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepoGetNotFound(t *testing.T) {
	f, mock := newMockFactory(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.|\n)* FROM processes WHERE id").WillReturnRows(processRows())
	mock.ExpectRollback()

	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		_, err := repos.Processes.Get(ctx, "missing")
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func workItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workqueue_id", "data", "reference", "locked", "status", "message",
		"started_at", "work_duration_seconds", "deleted", "created_at", "updated_at",
	})
}

func TestWorkItemClaimNextAssignsOldestUnlockedItem(t *testing.T) {
	f, mock := newMockFactory(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.|\n)*FROM work_items(.|\n)*FOR UPDATE SKIP LOCKED").
		WillReturnRows(workItemRows().AddRow("wi1", "wq1", []byte(`{"invoice":42}`), "ref-1", false, "NEW", "", nil, nil, false, now, now))
	mock.ExpectExec("UPDATE work_items SET locked = true").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var item domain.WorkItem
	var found bool
	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		claimed, ok, err := repos.WorkItems.ClaimNext(ctx, "wq1")
		item, found = claimed, ok
		return err
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, domain.WorkItemInProgress, item.Status)
	require.True(t, item.Locked)
	require.Equal(t, 42.0, item.Data["invoice"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkItemClaimNextEmptyQueueReturnsFalse(t *testing.T) {
	f, mock := newMockFactory(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.|\n)*FROM work_items(.|\n)*FOR UPDATE SKIP LOCKED").WillReturnRows(workItemRows())
	mock.ExpectCommit()

	var found bool
	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		_, ok, err := repos.WorkItems.ClaimNext(ctx, "wq1")
		found = ok
		return err
	})
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkItemClaimNextLostRaceReturnsContended(t *testing.T) {
	f, mock := newMockFactory(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.|\n)*FROM work_items(.|\n)*FOR UPDATE SKIP LOCKED").
		WillReturnRows(workItemRows().AddRow("wi1", "wq1", []byte(`{}`), "", false, "NEW", "", nil, nil, false, now, now))
	mock.ExpectExec("UPDATE work_items SET locked = true").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := f.Run(context.Background(), func(ctx context.Context, repos repo.Repositories) error {
		_, _, err := repos.WorkItems.ClaimNext(ctx, "wq1")
		return err
	})
	require.ErrorIs(t, err, domain.ErrContended)
	require.NoError(t, mock.ExpectationsWereMet())
}
