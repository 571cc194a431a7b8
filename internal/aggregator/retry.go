package aggregator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is the caller-owned retry configuration for adapter fetches.
// The aggregator itself never retries: a nil policy (the default) means one
// attempt per unit, and any retry budget comes in from above as an explicit
// policy rather than scattered ad hoc in scraping code.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxInterval caps the exponential backoff curve.
	MaxInterval time.Duration
}

// DefaultRetryPolicy is a modest policy for flaky third-party sources:
// three attempts with exponential backoff starting at one second.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// backoff builds the backoff schedule for one unit's attempts.
func (p *RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	if p == nil || p.MaxAttempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0 // bounded by attempt count and ctx, not wall clock

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx)
}

// fetchWithRetry runs fn under the policy's backoff schedule.
func fetchWithRetry(ctx context.Context, policy *RetryPolicy, fn func() (Records, error)) (Records, error) {
	var records Records
	op := func() error {
		var err error
		records, err = fn()
		return err
	}
	err := backoff.Retry(op, policy.backoff(ctx))
	return records, err
}
