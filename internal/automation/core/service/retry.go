// Package service holds small, dependency-free helpers shared across the
// automation control plane's components.
package service

import (
	"context"
	"time"
)

// RetryPolicy governs retry behavior for contended operations such as
// WorkItemRepository.ClaimNext.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// ClaimRetryPolicy is the claim path's bounded retry: flat 100ms backoff,
// up to 6 attempts.
var ClaimRetryPolicy = RetryPolicy{
	Attempts:       6,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     100 * time.Millisecond,
	Multiplier:     1,
}

// Retry executes fn with the provided policy, retrying while fn returns
// retryable(err) == true. It returns the last error if all attempts fail.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func() error) error {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 1
	}
	backoff := policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == policy.Attempts {
			break
		}
		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			next := time.Duration(float64(backoff) * policy.Multiplier)
			if policy.MaxBackoff > 0 && next > policy.MaxBackoff {
				next = policy.MaxBackoff
			}
			backoff = next
		}
	}
	return lastErr
}
