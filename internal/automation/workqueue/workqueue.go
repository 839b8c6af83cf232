// Package workqueue implements the work-item queue service (C4): enqueue,
// atomic claim with contention retry, status updates, reference lookup,
// clearing, and counters.
package workqueue

import (
	"context"
	"strings"
	"time"

	service "github.com/odense-rpa/automation-control-plane/internal/automation/core/service"
	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// Service is the work-item queue's pull and bookkeeping surface.
type Service struct {
	workqueues repo.WorkqueueRepository
	items      repo.WorkItemRepository
	log        *logger.Logger
}

// New constructs a Service.
func New(workqueues repo.WorkqueueRepository, items repo.WorkItemRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("workqueue-service")
	}
	return &Service{workqueues: workqueues, items: items, log: log}
}

// Enqueue inserts a WorkItem into a non-deleted workqueue.
func (s *Service) Enqueue(ctx context.Context, workqueueID string, data map[string]any, reference string) (domain.WorkItem, error) {
	wq, err := s.workqueues.Get(ctx, workqueueID)
	if err != nil {
		return domain.WorkItem{}, err
	}
	if wq.Deleted {
		return domain.WorkItem{}, domain.ErrGone
	}
	return s.items.Create(ctx, domain.WorkItem{
		WorkqueueID: workqueueID,
		Data:        data,
		Reference:   reference,
	})
}

// ClaimNext pulls the next eligible item for a queue, retrying on
// contention (~100ms backoff, up to 6 attempts). Disabled queues never
// dispense items even if non-empty.
func (s *Service) ClaimNext(ctx context.Context, workqueueID string) (domain.WorkItem, bool, error) {
	wq, err := s.workqueues.Get(ctx, workqueueID)
	if err != nil {
		return domain.WorkItem{}, false, err
	}
	if wq.Deleted || !wq.Enabled {
		return domain.WorkItem{}, false, nil
	}

	var (
		item  domain.WorkItem
		found bool
	)
	err = service.Retry(ctx, service.ClaimRetryPolicy, func(e error) bool {
		return e == domain.ErrContended
	}, func() error {
		it, ok, err := s.items.ClaimNext(ctx, workqueueID)
		if err != nil {
			return err
		}
		item, found = it, ok
		return nil
	})
	if err != nil {
		return domain.WorkItem{}, false, err
	}
	return item, found, nil
}

// UpdateStatus transitions a WorkItem to a new status. Any terminal status
// clears the lock; transitioning out of IN_PROGRESS records
// work_duration_seconds (floor to seconds).
func (s *Service) UpdateStatus(ctx context.Context, itemID string, to domain.WorkItemStatus, message string) (domain.WorkItem, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return domain.WorkItem{}, err
	}

	wasInProgress := item.Status == domain.WorkItemInProgress
	item.Status = to
	item.Message = message
	if to == domain.WorkItemInProgress {
		now := time.Now().UTC()
		item.StartedAt = &now
		item.Locked = true
	}
	if to.Terminal() {
		item.Locked = false
		if wasInProgress && item.StartedAt != nil {
			d := int64(time.Since(*item.StartedAt).Seconds())
			item.WorkDurationSeconds = &d
		}
	}
	return s.items.Update(ctx, item)
}

// LookupByReference returns items matching an exact reference, newest
// first. An empty/whitespace reference returns the empty list.
func (s *Service) LookupByReference(ctx context.Context, workqueueID, reference string, status *domain.WorkItemStatus) ([]domain.WorkItem, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, nil
	}
	return s.items.LookupByReference(ctx, workqueueID, reference, status)
}

// Clear deletes items in a queue, optionally filtered by status and/or age.
func (s *Service) Clear(ctx context.Context, workqueueID string, status *domain.WorkItemStatus, olderThan *time.Duration) (int64, error) {
	return s.items.Clear(ctx, workqueueID, status, olderThan)
}

// Count returns the number of items with the given status in a queue.
func (s *Service) Count(ctx context.Context, workqueueID string, status domain.WorkItemStatus) (int64, error) {
	return s.items.Count(ctx, workqueueID, status)
}
