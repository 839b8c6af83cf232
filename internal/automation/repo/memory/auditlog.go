package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type auditLogRepo struct{ s *Store }

func (r *auditLogRepo) Create(_ context.Context, a domain.AuditLog) (domain.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.EventTimestamp.IsZero() {
		a.EventTimestamp = time.Now().UTC()
	}
	r.s.auditlogs[a.ID] = a
	return a, nil
}

func (r *auditLogRepo) GetAll(_ context.Context) ([]domain.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.AuditLog, 0, len(r.s.auditlogs))
	for _, a := range r.s.auditlogs {
		out = append(out, a)
	}
	sortByCreatedAt(out, func(a domain.AuditLog) time.Time { return a.EventTimestamp })
	return out, nil
}
