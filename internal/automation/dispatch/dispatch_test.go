package dispatch

import (
	"context"
	"testing"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/registry"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo/memory"
)

func TestDispatchCapabilityTieBreak(t *testing.T) {
	st := memory.New()
	repos := st.Repos()
	ctx := context.Background()

	proc, _ := repos.Processes.Create(ctx, domain.Process{Name: "p", Requirements: "python linux"})
	repos.Resources.Create(ctx, domain.Resource{Fqdn: "r1", Capabilities: "python linux"})
	repos.Resources.Create(ctx, domain.Resource{Fqdn: "r2", Capabilities: "python linux docker"})
	repos.Resources.Create(ctx, domain.Resource{Fqdn: "r3", Capabilities: "java"})
	sess, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: proc.ID, Status: domain.SessionNew})

	reg := registry.New(repos.Resources, repos.Sessions, nil)
	d := New(repos.Sessions, repos.Resources, repos.Processes, reg, nil)
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := repos.Sessions.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResourceID == nil {
		t.Fatal("expected session to be dispatched")
	}
	r1, _ := repos.Resources.GetByFqdn(ctx, "r1")
	if *got.ResourceID != r1.ID {
		t.Fatalf("expected least over-provisioned resource r1, got %s", *got.ResourceID)
	}
}

func TestDispatchNoResourceLeavesSessionPending(t *testing.T) {
	st := memory.New()
	repos := st.Repos()
	ctx := context.Background()

	proc, _ := repos.Processes.Create(ctx, domain.Process{Name: "p", Requirements: "gpu"})
	sess, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: proc.ID, Status: domain.SessionNew})

	reg := registry.New(repos.Resources, repos.Sessions, nil)
	d := New(repos.Sessions, repos.Resources, repos.Processes, reg, nil)
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Sessions.Get(ctx, sess.ID)
	if got.ResourceID != nil {
		t.Fatal("expected session to remain pending with no compatible resource")
	}
}

func TestDispatchDoesNotReuseJustAssignedResourceWithinSamePass(t *testing.T) {
	st := memory.New()
	repos := st.Repos()
	ctx := context.Background()

	proc, _ := repos.Processes.Create(ctx, domain.Process{Name: "p", Requirements: "python"})
	repos.Resources.Create(ctx, domain.Resource{Fqdn: "only", Capabilities: "python"})
	s1, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: proc.ID, Status: domain.SessionNew})
	s2, _ := repos.Sessions.Create(ctx, domain.Session{ProcessID: proc.ID, Status: domain.SessionNew})

	reg := registry.New(repos.Resources, repos.Sessions, nil)
	d := New(repos.Sessions, repos.Resources, repos.Processes, reg, nil)
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}

	g1, _ := repos.Sessions.Get(ctx, s1.ID)
	g2, _ := repos.Sessions.Get(ctx, s2.ID)
	if g1.ResourceID == nil {
		t.Fatal("expected first (oldest) session to get the resource")
	}
	if g2.ResourceID != nil {
		t.Fatal("expected second session to remain pending: resource already claimed this pass")
	}
}
