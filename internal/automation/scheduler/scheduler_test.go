package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/memory"
)

func TestTickDispatchesFiredCronTrigger(t *testing.T) {
	st := memory.New()
	repos := st.Repos()
	ctx := context.Background()

	proc, err := repos.Processes.Create(ctx, domain.Process{Name: "p", Requirements: "python"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := repos.Resources.Create(ctx, domain.Resource{
		Fqdn: "worker-1", Capabilities: "python linux", LastSeen: time.Now().UTC(), Available: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Triggers.Create(ctx, domain.Trigger{
		ProcessID: proc.ID,
		Type:      domain.TriggerCron,
		Cron:      "* * * * *",
		Enabled:   true,
	}); err != nil {
		t.Fatal(err)
	}

	sched := New(st, Config{MaxParameterLength: 1000}, nil)
	if err := sched.tick(ctx); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	active, err := repos.Sessions.GetActiveSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one session fired by the cron trigger, got %d", len(active))
	}
	if active[0].ResourceID == nil || *active[0].ResourceID != res.ID {
		t.Fatalf("expected the fired session to be dispatched to the only resource within the same tick, got %+v", active[0])
	}
}

func TestTickFlushesDanglingSession(t *testing.T) {
	st := memory.New()
	repos := st.Repos()
	ctx := context.Background()

	proc, _ := repos.Processes.Create(ctx, domain.Process{Name: "p", Requirements: ""})

	staleDispatch := time.Now().UTC().Add(-5 * time.Hour)
	dying, err := repos.Sessions.Create(ctx, domain.Session{ProcessID: proc.ID, Status: domain.SessionNew})
	if err != nil {
		t.Fatal(err)
	}
	ghostResourceID := "nonexistent-resource-id"
	dying.ResourceID = &ghostResourceID
	dying.Status = domain.SessionInProgress
	dying.DispatchedAt = &staleDispatch
	if _, err := repos.Sessions.Update(ctx, dying); err != nil {
		t.Fatal(err)
	}

	sched := New(st, Config{}, nil)
	if err := sched.tick(ctx); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	got, err := repos.Sessions.Get(ctx, dying.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.SessionFailed {
		t.Fatalf("expected dangling session to be flushed to FAILED, got %s", got.Status)
	}
}

func TestStartStopGracefulShutdown(t *testing.T) {
	st := memory.New()
	sched := New(st, Config{Interval: time.Hour}, nil)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
