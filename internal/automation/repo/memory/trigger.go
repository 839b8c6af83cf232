package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type triggerRepo struct{ s *Store }

func (r *triggerRepo) Get(_ context.Context, id string) (domain.Trigger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.triggers[id]
	if !ok {
		return domain.Trigger{}, domain.ErrNotFound
	}
	if t.Deleted {
		return domain.Trigger{}, domain.ErrGone
	}
	return t, nil
}

func (r *triggerRepo) Create(_ context.Context, t domain.Trigger) (domain.Trigger, error) {
	if err := t.ValidateShape(); err != nil {
		return domain.Trigger{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = newID()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.triggers[t.ID] = t
	return t, nil
}

func (r *triggerRepo) Update(_ context.Context, t domain.Trigger) (domain.Trigger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.triggers[t.ID]; !ok {
		return domain.Trigger{}, domain.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	r.s.triggers[t.ID] = t
	return t, nil
}

func (r *triggerRepo) GetAll(_ context.Context, includeDeleted bool) ([]domain.Trigger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Trigger, 0, len(r.s.triggers))
	for _, t := range r.s.triggers {
		if !includeDeleted && t.Deleted {
			continue
		}
		out = append(out, t)
	}
	sortByCreatedAt(out, func(t domain.Trigger) time.Time { return t.CreatedAt })
	return out, nil
}
