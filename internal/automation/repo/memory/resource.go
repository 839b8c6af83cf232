package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type resourceRepo struct{ s *Store }

func (r *resourceRepo) Get(_ context.Context, id string) (domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.resources[id]
	if !ok {
		return domain.Resource{}, domain.ErrNotFound
	}
	if res.Deleted {
		return domain.Resource{}, domain.ErrGone
	}
	return res, nil
}

func (r *resourceRepo) GetByFqdn(_ context.Context, fqdn string) (domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.resources {
		if res.Fqdn == fqdn {
			return res, nil
		}
	}
	return domain.Resource{}, domain.ErrNotFound
}

func (r *resourceRepo) Create(_ context.Context, res domain.Resource) (domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if res.ID == "" {
		res.ID = newID()
	}
	if res.LastSeen.IsZero() {
		res.LastSeen = now
	}
	res.CreatedAt, res.UpdatedAt = now, now
	r.s.resources[res.ID] = res
	return res, nil
}

func (r *resourceRepo) Update(_ context.Context, res domain.Resource) (domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resources[res.ID]; !ok {
		return domain.Resource{}, domain.ErrNotFound
	}
	res.UpdatedAt = time.Now().UTC()
	r.s.resources[res.ID] = res
	return res, nil
}

func (r *resourceRepo) GetAll(_ context.Context, includeDeleted bool) ([]domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Resource, 0, len(r.s.resources))
	for _, res := range r.s.resources {
		if !includeDeleted && res.Deleted {
			continue
		}
		out = append(out, res)
	}
	sortByCreatedAt(out, func(res domain.Resource) time.Time { return res.CreatedAt })
	return out, nil
}

// GetAvailableResources returns non-deleted resources with no active
// (NEW-dispatched or IN_PROGRESS) session attached.
func (r *resourceRepo) GetAvailableResources(_ context.Context) ([]domain.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attached := make(map[string]bool)
	for _, sess := range r.s.sessions {
		if sess.Deleted || sess.ResourceID == nil {
			continue
		}
		if sess.Status == domain.SessionInProgress || sess.Status == domain.SessionNew {
			attached[*sess.ResourceID] = true
		}
	}
	out := make([]domain.Resource, 0)
	for _, res := range r.s.resources {
		if res.Deleted || attached[res.ID] {
			continue
		}
		out = append(out, res)
	}
	sortByCreatedAt(out, func(res domain.Resource) time.Time { return res.CreatedAt })
	return out, nil
}
