package memory

import (
	"context"
	"time"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
)

type credentialRepo struct{ s *Store }

func (r *credentialRepo) Get(_ context.Context, id string) (domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[id]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	if c.Deleted {
		return domain.Credential{}, domain.ErrGone
	}
	return c, nil
}

func (r *credentialRepo) GetByName(_ context.Context, name string) (domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.credentials {
		if c.Name == name && !c.Deleted {
			return c, nil
		}
	}
	return domain.Credential{}, domain.ErrNotFound
}

func (r *credentialRepo) Create(_ context.Context, c domain.Credential) (domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.credentials[c.ID] = c
	return c, nil
}

func (r *credentialRepo) Update(_ context.Context, c domain.Credential) (domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.credentials[c.ID]; !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	r.s.credentials[c.ID] = c
	return c, nil
}

func (r *credentialRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Deleted = true
	c.UpdatedAt = time.Now().UTC()
	r.s.credentials[id] = c
	return nil
}
