package workqueue

import (
	"context"
	"testing"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/memory"
)

func newTestService() (*Service, repo.Repositories, domain.Workqueue) {
	st := memory.New()
	repos := st.Repos()
	wq, _ := repos.Workqueues.Create(context.Background(), domain.Workqueue{Name: "q1", Enabled: true})
	return New(repos.Workqueues, repos.WorkItems, nil), repos, wq
}

func TestClaimEmptyQueueReturnsNone(t *testing.T) {
	svc, _, wq := newTestService()
	_, ok, err := svc.ClaimNext(context.Background(), wq.ID)
	if err != nil || ok {
		t.Fatalf("expected none, got ok=%v err=%v", ok, err)
	}
}

func TestClaimDisabledQueueNeverDispenses(t *testing.T) {
	svc, repos, wq := newTestService()
	ctx := context.Background()
	svc.Enqueue(ctx, wq.ID, nil, "ref")

	wq.Enabled = false
	repos.Workqueues.Update(ctx, wq)

	_, ok, err := svc.ClaimNext(ctx, wq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected disabled queue to never dispense items, even though non-empty")
	}
}

func TestEnqueueClaimCompleteLifecycle(t *testing.T) {
	svc, _, wq := newTestService()
	ctx := context.Background()

	item, err := svc.Enqueue(ctx, wq.ID, map[string]any{"k": "v"}, "ref-1")
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != domain.WorkItemNew || item.Locked {
		t.Fatalf("expected NEW+unlocked, got %+v", item)
	}

	claimed, ok, err := svc.ClaimNext(ctx, wq.ID)
	if err != nil || !ok {
		t.Fatalf("expected claim to succeed, err=%v ok=%v", err, ok)
	}
	if claimed.Status != domain.WorkItemInProgress || !claimed.Locked {
		t.Fatalf("expected IN_PROGRESS+locked, got %+v", claimed)
	}

	// item is never re-dispensed while locked
	_, ok, err = svc.ClaimNext(ctx, wq.ID)
	if err != nil || ok {
		t.Fatalf("expected no further items, ok=%v err=%v", ok, err)
	}

	completed, err := svc.UpdateStatus(ctx, claimed.ID, domain.WorkItemCompleted, "done")
	if err != nil {
		t.Fatal(err)
	}
	if completed.Locked {
		t.Fatal("expected lock cleared on terminal status")
	}
	if completed.WorkDurationSeconds == nil {
		t.Fatal("expected work_duration_seconds to be recorded")
	}
}

func TestLookupByReferenceEmptyReturnsEmptyList(t *testing.T) {
	svc, _, wq := newTestService()
	out, err := svc.LookupByReference(context.Background(), wq.ID, "   ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list for blank reference, got %v", out)
	}
}
