package triggers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

// cronParser evaluates standard five-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronProcessor fires a trigger at most once per wall-clock minute when its
// cron expression's next occurrence (computed from now-1m) lands in the
// current minute.
type CronProcessor struct{ Common }

// Process implements Processor.
func (p *CronProcessor) Process(ctx context.Context, trigger domain.Trigger, now time.Time) bool {
	params, ok := p.validateParameters(trigger.Parameters)
	if !ok {
		return false
	}
	if trigger.Cron == "" {
		p.Log.WithField("trigger_id", trigger.ID).Error("cron trigger missing cron expression")
		return false
	}
	if !shouldFireThisMinute(trigger, now) {
		return true
	}

	schedule, err := cronParser.Parse(trigger.Cron)
	if err != nil {
		p.Log.WithField("trigger_id", trigger.ID).WithError(err).Error("invalid cron expression")
		return false
	}

	next := schedule.Next(now.Add(-time.Minute))
	if !truncateMinute(next).Equal(truncateMinute(now)) {
		return true
	}

	return p.fire(ctx, trigger, params, false, now)
}
