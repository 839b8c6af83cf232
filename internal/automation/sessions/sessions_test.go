package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/memory"
)

func newTestService() (*Service, *memory.Store) {
	st := memory.New()
	repos := st.Repos()
	return New(repos.Sessions, repos.Resources, nil), st
}

func TestCreateSessionDedupWithoutForce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, created, err := svc.CreateSession(ctx, "proc-1", false, "")
	if err != nil || !created {
		t.Fatalf("expected first session created, err=%v created=%v", err, created)
	}
	_, created, err = svc.CreateSession(ctx, "proc-1", false, "")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("expected dedup to suppress the second session")
	}
}

func TestCreateSessionForceBypassesDedup(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.CreateSession(ctx, "proc-1", false, "")
	_, created, err := svc.CreateSession(ctx, "proc-1", true, "")
	if err != nil || !created {
		t.Fatalf("expected forced session created, err=%v created=%v", err, created)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	repos := st.Repos()

	sess, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: "p", Status: domain.SessionNew})
	_, err := svc.UpdateStatus(ctx, sess.ID, domain.SessionCompleted)
	if err != domain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition (no resource_id), got %v", err)
	}
}

func TestUpdateStatusReleasesResourceOnTerminal(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	repos := st.Repos()

	res, _ := repos.Resources.Create(ctx, domain.Resource{Fqdn: "h", Available: false})
	rid := res.ID
	sess, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: "p", Status: domain.SessionInProgress, ResourceID: &rid})

	updated, err := svc.UpdateStatus(ctx, sess.ID, domain.SessionCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.SessionCompleted {
		t.Fatalf("expected COMPLETED, got %s", updated.Status)
	}
	got, _ := repos.Resources.Get(ctx, res.ID)
	if !got.Available {
		t.Fatal("expected resource released (available=true)")
	}
}

func TestRescheduleOrphanedSessions(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	repos := st.Repos()

	missingID := "does-not-exist"
	sess, _ := repos.Sessions.Create(ctx, domain.Session{
		ProcessID:  "p",
		Status:     domain.SessionNew,
		ResourceID: &missingID,
	})
	now := time.Now().UTC()
	sess.DispatchedAt = &now
	repos.Sessions.Update(ctx, sess)

	if err := svc.RescheduleOrphanedSessions(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Sessions.Get(ctx, sess.ID)
	if got.ResourceID != nil || got.DispatchedAt != nil {
		t.Fatal("expected orphaned session to be unassigned")
	}
}

func TestFlushDanglingSessionsFailsAfterTimeout(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	repos := st.Repos()

	missingID := "gone-resource"
	dispatchedAt := time.Now().UTC().Add(-5 * time.Hour)
	sess, _ := repos.Sessions.Create(ctx, domain.Session{
		ProcessID:    "p",
		Status:       domain.SessionInProgress,
		ResourceID:   &missingID,
		DispatchedAt: &dispatchedAt,
	})

	if err := svc.FlushDanglingSessions(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Sessions.Get(ctx, sess.ID)
	if got.Status != domain.SessionFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
}

func TestFlushDanglingSessionsLeavesLiveResourceUnbounded(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	repos := st.Repos()

	res, _ := repos.Resources.Create(ctx, domain.Resource{Fqdn: "h"})
	rid := res.ID
	dispatchedAt := time.Now().UTC().Add(-5 * time.Hour)
	sess, _ := repos.Sessions.Create(ctx, domain.Session{
		ProcessID:    "p",
		Status:       domain.SessionInProgress,
		ResourceID:   &rid,
		DispatchedAt: &dispatchedAt,
	})

	if err := svc.FlushDanglingSessions(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Sessions.Get(ctx, sess.ID)
	if got.Status != domain.SessionInProgress {
		t.Fatalf("expected session to keep running on a live resource, got %s", got.Status)
	}
}
