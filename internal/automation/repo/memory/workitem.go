package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type workItemRepo struct{ s *Store }

func (r *workItemRepo) Get(_ context.Context, id string) (domain.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workitems[id]
	if !ok {
		return domain.WorkItem{}, domain.ErrNotFound
	}
	if w.Deleted {
		return domain.WorkItem{}, domain.ErrGone
	}
	return w, nil
}

// Create inserts a WorkItem with forced fields {status: NEW, locked: false,
// deleted: false}.
func (r *workItemRepo) Create(_ context.Context, w domain.WorkItem) (domain.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if w.ID == "" {
		w.ID = newID()
	}
	w.Status = domain.WorkItemNew
	w.Locked = false
	w.Deleted = false
	w.CreatedAt, w.UpdatedAt = now, now
	r.s.workitems[w.ID] = w
	return w, nil
}

func (r *workItemRepo) Update(_ context.Context, w domain.WorkItem) (domain.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workitems[w.ID]; !ok {
		return domain.WorkItem{}, domain.ErrNotFound
	}
	w.UpdatedAt = time.Now().UTC()
	r.s.workitems[w.ID] = w
	return w, nil
}

func (r *workItemRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workitems[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.workitems, id)
	return nil
}

// ClaimNext selects the oldest NEW, unlocked item in the queue and
// atomically flips it to IN_PROGRESS+locked+started_at=now. The in-memory
// store has no row-level lock, so it emulates "skip locked" trivially
// (single mutex, no concurrent claimants can observe a half-updated item);
// it never returns ErrContended since there is no underlying store
// conflict to detect.
func (r *workItemRepo) ClaimNext(_ context.Context, workqueueID string) (domain.WorkItem, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var best *domain.WorkItem
	for id, w := range r.s.workitems {
		if w.WorkqueueID != workqueueID || w.Deleted || w.Locked || w.Status != domain.WorkItemNew {
			continue
		}
		if best == nil || w.CreatedAt.Before(best.CreatedAt) {
			item := r.s.workitems[id]
			best = &item
		}
	}
	if best == nil {
		return domain.WorkItem{}, false, nil
	}
	now := time.Now().UTC()
	best.Locked = true
	best.Status = domain.WorkItemInProgress
	best.StartedAt = &now
	best.UpdatedAt = now
	r.s.workitems[best.ID] = *best
	return *best, true, nil
}

func (r *workItemRepo) LookupByReference(_ context.Context, workqueueID, reference string, status *domain.WorkItemStatus) ([]domain.WorkItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.WorkItem, 0)
	for _, w := range r.s.workitems {
		if w.WorkqueueID != workqueueID || w.Deleted || w.Reference != reference {
			continue
		}
		if status != nil && w.Status != *status {
			continue
		}
		out = append(out, w)
	}
	sortByCreatedAt(out, func(w domain.WorkItem) time.Time { return w.CreatedAt })
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *workItemRepo) Clear(_ context.Context, workqueueID string, status *domain.WorkItemStatus, olderThan *time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for id, w := range r.s.workitems {
		if w.WorkqueueID != workqueueID {
			continue
		}
		if status != nil && w.Status != *status {
			continue
		}
		if olderThan != nil && now.Sub(w.CreatedAt) < *olderThan {
			continue
		}
		delete(r.s.workitems, id)
		n++
	}
	return n, nil
}

func (r *workItemRepo) Count(_ context.Context, workqueueID string, status domain.WorkItemStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, w := range r.s.workitems {
		if w.WorkqueueID == workqueueID && !w.Deleted && w.Status == status {
			n++
		}
	}
	return n, nil
}
