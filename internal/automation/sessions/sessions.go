// Package sessions implements the session lifecycle service (C3): the
// session state machine, orphan rescheduling, dangling-session reclamation,
// and session creation with NEW-session dedup.
package sessions

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/metrics"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// DanglingTimeout is the sole automatic timeout: IN_PROGRESS sessions
// whose resource has vanished are failed after this long. Sessions on live
// resources run unbounded.
const DanglingTimeout = 4 * time.Hour

// Service owns the session state machine and its housekeeping.
type Service struct {
	sessions  repo.SessionRepository
	resources repo.ResourceRepository
	log       *logger.Logger
}

// New constructs a Service.
func New(sessions repo.SessionRepository, resources repo.ResourceRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("session-service")
	}
	return &Service{sessions: sessions, resources: resources, log: log}
}

// CreateSession creates a NEW session for process_id. If force is false and
// a NEW session already exists for this process, it returns (zero, false,
// nil) without creating anything.
func (s *Service) CreateSession(ctx context.Context, processID string, force bool, parameters string) (domain.Session, bool, error) {
	if !force {
		existing, err := s.sessions.GetNewSessions(ctx)
		if err != nil {
			return domain.Session{}, false, err
		}
		for _, sess := range existing {
			if sess.ProcessID == processID {
				return domain.Session{}, false, nil
			}
		}
	}
	sess, err := s.sessions.Create(ctx, domain.Session{
		ProcessID:  processID,
		Status:     domain.SessionNew,
		Parameters: parameters,
	})
	if err != nil {
		return domain.Session{}, false, err
	}
	return sess, true, nil
}

// UpdateStatus applies a worker-initiated status transition, enforcing the
// allowed transition set and releasing the resource on any transition out
// of IN_PROGRESS.
func (s *Service) UpdateStatus(ctx context.Context, sessionID string, to domain.SessionStatus) (domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.ResourceID == nil {
		return domain.Session{}, domain.ErrInvalidTransition
	}
	if !domain.ValidSessionTransition(sess.Status, to) {
		return domain.Session{}, domain.ErrInvalidTransition
	}

	wasInProgress := sess.Status == domain.SessionInProgress
	sess.Status = to
	updated, err := s.sessions.Update(ctx, sess)
	if err != nil {
		return domain.Session{}, err
	}
	metrics.RecordSessionTransition(string(to))

	if wasInProgress && to.Terminal() {
		if err := s.releaseResource(ctx, *sess.ResourceID); err != nil {
			return domain.Session{}, err
		}
	}
	return updated, nil
}

func (s *Service) releaseResource(ctx context.Context, resourceID string) error {
	res, err := s.resources.Get(ctx, resourceID)
	if err != nil {
		if err == domain.ErrNotFound || err == domain.ErrGone {
			return nil
		}
		return err
	}
	res.Available = true
	_, err = s.resources.Update(ctx, res)
	return err
}

// RescheduleOrphanedSessions clears resource_id/dispatched_at for any NEW
// session whose resource is missing or deleted, making it dispatchable
// again.
func (s *Service) RescheduleOrphanedSessions(ctx context.Context) error {
	newSessions, err := s.sessions.GetNewSessions(ctx)
	if err != nil {
		return err
	}
	for _, sess := range newSessions {
		if sess.ResourceID == nil {
			continue
		}
		res, err := s.resources.Get(ctx, *sess.ResourceID)
		if err == nil && !res.Deleted {
			continue
		}
		if err != nil && err != domain.ErrNotFound && err != domain.ErrGone {
			return err
		}
		sess.ResourceID = nil
		sess.DispatchedAt = nil
		if _, err := s.sessions.Update(ctx, sess); err != nil {
			return err
		}
		s.log.WithField("session_id", sess.ID).Info("rescheduled orphaned session")
	}
	return nil
}

// FlushDanglingSessions fails any IN_PROGRESS session older than
// DanglingTimeout whose resource is missing or deleted.
func (s *Service) FlushDanglingSessions(ctx context.Context) error {
	active, err := s.sessions.GetActiveSessions(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, sess := range active {
		if sess.Status != domain.SessionInProgress || sess.DispatchedAt == nil {
			continue
		}
		if now.Sub(*sess.DispatchedAt) < DanglingTimeout {
			continue
		}
		resourceGone := sess.ResourceID == nil
		if !resourceGone {
			res, err := s.resources.Get(ctx, *sess.ResourceID)
			if err != nil && err != domain.ErrNotFound && err != domain.ErrGone {
				return err
			}
			resourceGone = err == domain.ErrNotFound || err == domain.ErrGone || res.Deleted
		}
		if !resourceGone {
			continue
		}
		sess.Status = domain.SessionFailed
		sess.ResourceID = nil
		if _, err := s.sessions.Update(ctx, sess); err != nil {
			return err
		}
		s.log.WithField("session_id", sess.ID).Warn("flushed dangling session")
	}
	return nil
}
