package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type workqueueRepo struct{ s *Store }

func (r *workqueueRepo) Get(_ context.Context, id string) (domain.Workqueue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workqueues[id]
	if !ok {
		return domain.Workqueue{}, domain.ErrNotFound
	}
	if w.Deleted {
		return domain.Workqueue{}, domain.ErrGone
	}
	return w, nil
}

func (r *workqueueRepo) GetByName(_ context.Context, name string) (domain.Workqueue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.workqueues {
		if w.Name == name {
			return w, nil
		}
	}
	return domain.Workqueue{}, domain.ErrNotFound
}

func (r *workqueueRepo) Create(_ context.Context, w domain.Workqueue) (domain.Workqueue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if w.ID == "" {
		w.ID = newID()
	}
	w.CreatedAt, w.UpdatedAt = now, now
	r.s.workqueues[w.ID] = w
	return w, nil
}

func (r *workqueueRepo) Update(_ context.Context, w domain.Workqueue) (domain.Workqueue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workqueues[w.ID]; !ok {
		return domain.Workqueue{}, domain.ErrNotFound
	}
	w.UpdatedAt = time.Now().UTC()
	r.s.workqueues[w.ID] = w
	return w, nil
}

func (r *workqueueRepo) GetAll(_ context.Context, includeDeleted bool) ([]domain.Workqueue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Workqueue, 0, len(r.s.workqueues))
	for _, w := range r.s.workqueues {
		if !includeDeleted && w.Deleted {
			continue
		}
		out = append(out, w)
	}
	sortByCreatedAt(out, func(w domain.Workqueue) time.Time { return w.CreatedAt })
	return out, nil
}
