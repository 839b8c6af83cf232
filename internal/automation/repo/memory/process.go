package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type processRepo struct{ s *Store }

func (r *processRepo) Get(_ context.Context, id string) (domain.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.processes[id]
	if !ok {
		return domain.Process{}, domain.ErrNotFound
	}
	if p.Deleted {
		return domain.Process{}, domain.ErrGone
	}
	return p, nil
}

func (r *processRepo) Create(_ context.Context, p domain.Process) (domain.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = newID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.processes[p.ID] = p
	return p, nil
}

func (r *processRepo) Update(_ context.Context, p domain.Process) (domain.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.processes[p.ID]; !ok {
		return domain.Process{}, domain.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.s.processes[p.ID] = p
	return p, nil
}

func (r *processRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.processes[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Deleted = true
	p.UpdatedAt = time.Now().UTC()
	r.s.processes[id] = p
	return nil
}

func (r *processRepo) GetAll(_ context.Context, includeDeleted bool) ([]domain.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Process, 0, len(r.s.processes))
	for _, p := range r.s.processes {
		if !includeDeleted && p.Deleted {
			continue
		}
		out = append(out, p)
	}
	sortByCreatedAt(out, func(p domain.Process) time.Time { return p.CreatedAt })
	return out, nil
}
