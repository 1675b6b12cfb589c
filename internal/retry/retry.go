// Package retry implements the exponential-backoff policy applied around
// network-dependent scraping calls. Each call site carries its own Policy so
// distinct failure domains (notebook pages, product pages, the catalog site)
// can have different attempt budgets.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes one call site's retry budget.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64

	// Sleep is injectable for tests; nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	// Permanent reports errors that must not be retried (for example an
	// authentication redirect - burning retry budget on it just delays the
	// re-login prompt). Nil means everything is retryable.
	Permanent func(err error) bool
}

// DefaultPolicy mirrors the scraper defaults: 3 attempts, 2s initial delay,
// doubling between attempts.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: 2}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn up to p.MaxAttempts times, sleeping with multiplicative backoff
// between attempts. The final error is returned unchanged once the budget is
// exhausted. Context cancellation and permanent errors abort immediately.
func Do(ctx context.Context, p Policy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 2
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.Delay
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(err) {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.Backoff)
	}
	return err
}
