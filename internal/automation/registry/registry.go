// Package registry implements the resource registry (C2): tracks worker
// liveness from heartbeats, marks stale workers unavailable, and reclaims
// their sessions.
package registry

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// StaleAfter is the heartbeat staleness threshold before a resource is
// eligible for detachment by the availability sweep.
const StaleAfter = 10 * time.Minute

// Registry tracks worker machines and their liveness.
type Registry struct {
	resources repo.ResourceRepository
	sessions  repo.SessionRepository
	log       *logger.Logger
}

// New constructs a Registry.
func New(resources repo.ResourceRepository, sessions repo.SessionRepository, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault("resource-registry")
	}
	return &Registry{resources: resources, sessions: sessions, log: log}
}

// Enroll registers a worker, or revives/refreshes an existing one.
func (r *Registry) Enroll(ctx context.Context, fqdn, name, capabilities string) (domain.Resource, error) {
	now := time.Now().UTC()
	existing, err := r.resources.GetByFqdn(ctx, fqdn)
	switch {
	case err == domain.ErrNotFound:
		return r.resources.Create(ctx, domain.Resource{
			Fqdn:         fqdn,
			Name:         name,
			Capabilities: capabilities,
			LastSeen:     now,
			Available:    true,
			Deleted:      false,
		})
	case err != nil:
		return domain.Resource{}, err
	}

	if !existing.Deleted {
		existing.LastSeen = now
		existing.Capabilities = capabilities
		return r.resources.Update(ctx, existing)
	}

	// Revive a previously detached resource.
	existing.Deleted = false
	existing.Available = true
	existing.LastSeen = now
	existing.Name = name
	existing.Capabilities = capabilities
	revived, err := r.resources.Update(ctx, existing)
	if err != nil {
		return domain.Resource{}, err
	}
	if err := r.FlushSessions(ctx, revived.ID); err != nil {
		return domain.Resource{}, err
	}
	return revived, nil
}

// KeepAlive is an idempotent heartbeat. It revives a previously detached
// (soft-deleted) resource rather than erroring.
func (r *Registry) KeepAlive(ctx context.Context, resourceID string) (domain.Resource, error) {
	res, err := r.resources.Get(ctx, resourceID)
	if err == domain.ErrGone {
		res, err = r.getIncludingDeleted(ctx, resourceID)
	}
	if err != nil {
		return domain.Resource{}, err
	}
	res.LastSeen = time.Now().UTC()
	res.Deleted = false
	return r.resources.Update(ctx, res)
}

// getIncludingDeleted looks up a resource by id regardless of its deleted
// flag; ResourceRepository.Get surfaces domain.ErrGone with a zero value for
// soft-deleted rows, so callers that need the row itself fall back to a
// scan over GetAll(includeDeleted=true).
func (r *Registry) getIncludingDeleted(ctx context.Context, resourceID string) (domain.Resource, error) {
	all, err := r.resources.GetAll(ctx, true)
	if err != nil {
		return domain.Resource{}, err
	}
	for _, res := range all {
		if res.ID == resourceID {
			return res, nil
		}
	}
	return domain.Resource{}, domain.ErrNotFound
}

// UpdateAvailability is the availability sweep: detach any resource whose
// heartbeat is stale and that has no IN_PROGRESS session attached.
func (r *Registry) UpdateAvailability(ctx context.Context) error {
	resources, err := r.resources.GetAll(ctx, false)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, res := range resources {
		if now.Sub(res.LastSeen) <= StaleAfter {
			continue
		}
		sess, hasActive, err := r.sessions.GetByResourceID(ctx, res.ID)
		if err != nil {
			return err
		}
		if hasActive && sess.Status == domain.SessionInProgress {
			// A running session keeps the resource around; it will be
			// reclaimed by the dangling-session flush instead.
			continue
		}
		r.log.WithField("resource_id", res.ID).Info("detaching stale resource")
		if err := r.detach(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) detach(ctx context.Context, res domain.Resource) error {
	res.Deleted = true
	res.Available = false
	if _, err := r.resources.Update(ctx, res); err != nil {
		return err
	}
	return r.FlushSessions(ctx, res.ID)
}

// FlushSessions handles every non-terminal session referencing a resource:
// IN_PROGRESS -> FAILED (resource released); NEW -> unassigned (clears
// resource_id/dispatched_at, rescheduleable).
func (r *Registry) FlushSessions(ctx context.Context, resourceID string) error {
	for {
		sess, ok, err := r.sessions.GetByResourceID(ctx, resourceID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch sess.Status {
		case domain.SessionInProgress:
			sess.Status = domain.SessionFailed
			sess.ResourceID = nil
		case domain.SessionNew:
			sess.ResourceID = nil
			sess.DispatchedAt = nil
		default:
			return nil
		}
		if _, err := r.sessions.Update(ctx, sess); err != nil {
			return err
		}
	}
}
