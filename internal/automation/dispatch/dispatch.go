// Package dispatch implements the dispatcher (C6): drains pending sessions
// into available resources via the capability matcher, committing the
// pairing.
package dispatch

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/capability"
	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/metrics"
	"github.com/odense-rpa/automation-control-plane/internal/automation/registry"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Dispatcher pairs pending sessions with available resources.
type Dispatcher struct {
	sessions  repo.SessionRepository
	resources repo.ResourceRepository
	processes repo.ProcessRepository
	registry  *registry.Registry
	log       *logger.Logger
}

// New constructs a Dispatcher.
func New(sessions repo.SessionRepository, resources repo.ResourceRepository, processes repo.ProcessRepository, reg *registry.Registry, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("dispatcher")
	}
	return &Dispatcher{sessions: sessions, resources: resources, processes: processes, registry: reg, log: log}
}

// Run performs one dispatch pass: sweep availability, then FIFO-assign
// pending sessions to the best compatible resource, refreshing the
// available-resource list between each assignment so a just-dispatched
// resource isn't reused within the same pass.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.registry.UpdateAvailability(ctx); err != nil {
		return err
	}

	sessions, err := d.sessions.GetNewSessions(ctx)
	if err != nil {
		return err
	}
	pending := make([]domain.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ResourceID == nil {
			pending = append(pending, sess)
		}
	}

	for _, sess := range pending {
		proc, err := d.processes.Get(ctx, sess.ProcessID)
		if err != nil {
			d.log.WithField("session_id", sess.ID).WithError(err).Warn("dispatch: process missing")
			continue
		}

		available, err := d.resources.GetAvailableResources(ctx)
		if err != nil {
			return err
		}
		candidates := make([]capability.Candidate, len(available))
		for i, r := range available {
			candidates[i] = capability.Candidate{ID: r.ID, Capabilities: r.Capabilities}
		}

		best, ok := capability.FindBest(proc.Requirements, candidates)
		if !ok {
			d.log.WithField("session_id", sess.ID).Info("no available resources for session")
			metrics.RecordDispatchAssignment("unassignable")
			continue
		}

		var resourceID string
		for _, r := range available {
			if r.ID == best.ID {
				resourceID = r.ID
				break
			}
		}

		res, err := d.resources.Get(ctx, resourceID)
		if err != nil {
			return err
		}
		res.Available = false
		if _, err := d.resources.Update(ctx, res); err != nil {
			return err
		}

		now := time.Now().UTC()
		sess.ResourceID = &resourceID
		sess.DispatchedAt = &now
		if _, err := d.sessions.Update(ctx, sess); err != nil {
			return err
		}
		d.log.WithField("session_id", sess.ID).WithField("resource_id", resourceID).Info("dispatched session")
		metrics.RecordDispatchAssignment("assigned")
	}
	return nil
}
