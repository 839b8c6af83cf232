package triggers

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/capability"
	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
)

// WorkqueueProcessor scales a process's session count to the NEW-item
// backlog pressure of its referenced workqueue, creating at most one
// session per tick so processes sharing the resource pool are not starved.
type WorkqueueProcessor struct {
	Common
	Workqueues  repo.WorkqueueRepository
	WorkItems   repo.WorkItemRepository
	SessionRepo repo.SessionRepository
	Resources   repo.ResourceRepository
	Processes   repo.ProcessRepository
}

// Process implements Processor.
func (p *WorkqueueProcessor) Process(ctx context.Context, trigger domain.Trigger, now time.Time) bool {
	params, ok := p.validateParameters(trigger.Parameters)
	if !ok {
		return false
	}
	if trigger.WorkqueueID == nil {
		p.Log.WithField("trigger_id", trigger.ID).Error("workqueue trigger missing workqueue_id")
		return false
	}

	wq, err := p.Workqueues.Get(ctx, *trigger.WorkqueueID)
	if err != nil {
		p.Log.WithField("trigger_id", trigger.ID).WithError(err).Error("referenced workqueue does not exist")
		return true // soft skip
	}
	if !wq.Enabled {
		return true
	}

	pending, err := p.WorkItems.Count(ctx, wq.ID, domain.WorkItemNew)
	if err != nil {
		return false
	}
	if pending == 0 {
		return true
	}

	threshold := trigger.WorkqueueScaleUpThreshold
	if threshold < 1 {
		threshold = 1
	}
	required := int(pending) / threshold
	if required < 1 {
		required = 1
	}
	// The concurrency cap applies after the floor: a limit of zero means the
	// trigger never scales up.
	if required > trigger.WorkqueueResourceLimit {
		required = trigger.WorkqueueResourceLimit
	}

	active, err := p.SessionRepo.GetActiveSessions(ctx)
	if err != nil {
		return false
	}
	activeForProcess := 0
	for _, sess := range active {
		if sess.ProcessID == trigger.ProcessID {
			activeForProcess++
		}
	}
	if activeForProcess >= required {
		return true
	}

	proc, err := p.Processes.Get(ctx, trigger.ProcessID)
	if err != nil {
		return false
	}
	available, err := p.Resources.GetAvailableResources(ctx)
	if err != nil {
		return false
	}
	candidates := make([]capability.Candidate, len(available))
	for i, r := range available {
		candidates[i] = capability.Candidate{ID: r.ID, Capabilities: r.Capabilities}
	}
	if _, ok := capability.FindBest(proc.Requirements, candidates); !ok {
		return true
	}

	return p.fire(ctx, trigger, params, true, now)
}
