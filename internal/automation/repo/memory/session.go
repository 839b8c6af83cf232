package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Get(_ context.Context, id string) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	if sess.Deleted {
		return domain.Session{}, domain.ErrGone
	}
	return sess, nil
}

func (r *sessionRepo) Create(_ context.Context, sess domain.Session) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if sess.ID == "" {
		sess.ID = newID()
	}
	sess.CreatedAt, sess.UpdatedAt = now, now
	r.s.sessions[sess.ID] = sess
	return sess, nil
}

func (r *sessionRepo) Update(_ context.Context, sess domain.Session) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.ID]; !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	sess.UpdatedAt = time.Now().UTC()
	r.s.sessions[sess.ID] = sess
	return sess, nil
}

func (r *sessionRepo) GetAll(_ context.Context, includeDeleted bool) ([]domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Session, 0, len(r.s.sessions))
	for _, sess := range r.s.sessions {
		if !includeDeleted && sess.Deleted {
			continue
		}
		out = append(out, sess)
	}
	sortByCreatedAt(out, func(sess domain.Session) time.Time { return sess.CreatedAt })
	return out, nil
}

func (r *sessionRepo) GetByResourceID(_ context.Context, resourceID string) (domain.Session, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.Deleted || sess.ResourceID == nil || *sess.ResourceID != resourceID {
			continue
		}
		if !sess.Status.Terminal() {
			return sess, true, nil
		}
	}
	return domain.Session{}, false, nil
}

func (r *sessionRepo) GetNewSessions(_ context.Context) ([]domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Session, 0)
	for _, sess := range r.s.sessions {
		if sess.Deleted || sess.Status != domain.SessionNew {
			continue
		}
		out = append(out, sess)
	}
	sortByCreatedAt(out, func(sess domain.Session) time.Time { return sess.CreatedAt })
	return out, nil
}

func (r *sessionRepo) GetActiveSessions(_ context.Context) ([]domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Session, 0)
	for _, sess := range r.s.sessions {
		if sess.Deleted {
			continue
		}
		if sess.Status == domain.SessionNew || sess.Status == domain.SessionInProgress {
			out = append(out, sess)
		}
	}
	sortByCreatedAt(out, func(sess domain.Session) time.Time { return sess.CreatedAt })
	return out, nil
}
