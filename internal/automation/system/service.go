// Package system defines the lifecycle contract shared by every
// long-running component in the automation control plane.
package system

import "context"

// Service represents a lifecycle-managed component. The scheduler and the
// HTTP façade both implement this so a composition root can start and stop
// them deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
