package triggers

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/internal/automation/sessions"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Registry maps each trigger type to its Processor. The set of types is
// closed, so a direct map beats anything more elaborate.
type Registry struct {
	processors map[domain.TriggerType]Processor
	log        *logger.Logger
}

// Deps bundles everything needed to build the three built-in processors.
type Deps struct {
	Sessions           *sessions.Service
	Triggers           repo.TriggerRepository
	Workqueues         repo.WorkqueueRepository
	WorkItems          repo.WorkItemRepository
	SessionRepo        repo.SessionRepository
	Resources          repo.ResourceRepository
	Processes          repo.ProcessRepository
	MaxParameterLength int
	Log                *logger.Logger
}

// NewRegistry builds the standard CRON/DATE/WORKQUEUE registry.
func NewRegistry(d Deps) *Registry {
	if d.Log == nil {
		d.Log = logger.NewDefault("trigger-registry")
	}
	common := Common{Sessions: d.Sessions, Triggers: d.Triggers, MaxParameterLength: d.MaxParameterLength, Log: d.Log}
	return &Registry{
		log: d.Log,
		processors: map[domain.TriggerType]Processor{
			domain.TriggerCron: &CronProcessor{Common: common},
			domain.TriggerDate: &DateProcessor{Common: common},
			domain.TriggerWorkqueue: &WorkqueueProcessor{
				Common:      common,
				Workqueues:  d.Workqueues,
				WorkItems:   d.WorkItems,
				SessionRepo: d.SessionRepo,
				Resources:   d.Resources,
				Processes:   d.Processes,
			},
		},
	}
}

// Process looks up the processor for trigger.Type and runs it. Unknown
// types log and skip (return true: not itself an error for the tick).
func (r *Registry) Process(ctx context.Context, trigger domain.Trigger, now time.Time) bool {
	p, ok := r.processors[trigger.Type]
	if !ok {
		r.log.WithField("trigger_id", trigger.ID).WithField("type", trigger.Type).Warn("unknown trigger type")
		return true
	}
	return p.Process(ctx, trigger, now)
}
