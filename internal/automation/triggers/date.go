package triggers

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

// DateProcessor fires a one-shot trigger once trigger.Date has passed, then
// disables and soft-deletes it.
type DateProcessor struct{ Common }

// Process implements Processor.
func (p *DateProcessor) Process(ctx context.Context, trigger domain.Trigger, now time.Time) bool {
	params, ok := p.validateParameters(trigger.Parameters)
	if !ok {
		return false
	}
	if trigger.Date == nil || trigger.Date.After(now) {
		return true
	}

	if !p.fire(ctx, trigger, params, false, now) {
		return false
	}

	trigger.LastTriggered = &now
	trigger.Enabled = false
	trigger.Deleted = true
	if _, err := p.Triggers.Update(ctx, trigger); err != nil {
		p.Log.WithField("trigger_id", trigger.ID).WithError(err).Error("failed to retire one-shot date trigger")
		return false
	}
	return true
}
