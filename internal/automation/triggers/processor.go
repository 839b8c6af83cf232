// Package triggers implements the trigger processors (C7): a registry
// mapping each trigger type to a strategy that decides whether to fire a
// new session.
package triggers

import (
	"context"
	"strings"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/internal/automation/sessions"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Processor evaluates a single trigger at time now, firing a session as a
// side effect when appropriate. It returns false on a soft failure; the
// scheduler continues with the next trigger.
type Processor interface {
	Process(ctx context.Context, trigger domain.Trigger, now time.Time) bool
}

// Common holds the dependencies every processor needs: the session service
// (to fire) and the trigger repository (to stamp last_triggered).
type Common struct {
	Sessions           *sessions.Service
	Triggers           repo.TriggerRepository
	MaxParameterLength int
	Log                *logger.Logger
}

// validateParameters trims the parameter string and rejects values longer
// than the configured maximum.
func (c *Common) validateParameters(params string) (string, bool) {
	trimmed := strings.TrimSpace(params)
	max := c.MaxParameterLength
	if max <= 0 {
		max = 1000
	}
	if len(trimmed) > max {
		c.Log.WithField("length", len(trimmed)).Warn("trigger parameters exceed maximum length")
		return "", false
	}
	return trimmed, true
}

// fire creates a session for the trigger's process and stamps
// last_triggered=now. Both writes land in the caller's unit of work, so the
// once-per-minute guard survives a crash between them.
func (c *Common) fire(ctx context.Context, trigger domain.Trigger, params string, force bool, now time.Time) bool {
	_, created, err := c.Sessions.CreateSession(ctx, trigger.ProcessID, force, params)
	if err != nil {
		c.Log.WithField("trigger_id", trigger.ID).WithError(err).Error("failed to create session for trigger")
		return false
	}
	if !created {
		// Dedup suppressed session creation; still a successful evaluation.
		return true
	}
	trigger.LastTriggered = &now
	if _, err := c.Triggers.Update(ctx, trigger); err != nil {
		c.Log.WithField("trigger_id", trigger.ID).WithError(err).Error("failed to stamp last_triggered")
		return false
	}
	return true
}

// shouldFireThisMinute enforces the once-per-minute guard: a trigger fires
// at most once per wall-clock minute, compared at minute truncation.
func shouldFireThisMinute(trigger domain.Trigger, now time.Time) bool {
	if trigger.LastTriggered == nil {
		return true
	}
	return !truncateMinute(*trigger.LastTriggered).Equal(truncateMinute(now))
}

func truncateMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
