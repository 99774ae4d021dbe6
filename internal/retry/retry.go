// Package retry wraps external calls with bounded exponential backoff.
// Only errors the caller classifies as transient are retried; everything
// else propagates immediately. Backoff delays are suspension points: they
// honour context cancellation and never block sibling work.
package retry

import (
	"context"
	"time"

	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Policy holds the retry parameters read once at startup.
type Policy struct {
	backoff     utils.Backoff
	maxAttempts int
	clock       utils.Clock
}

// NewPolicy creates a policy with explicit parameters.
func NewPolicy(start, max time.Duration, multiplier float64, maxAttempts int, clock utils.Clock) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{
		backoff:     utils.NewBackoff(start, max, multiplier),
		maxAttempts: maxAttempts,
		clock:       clock,
	}
}

// NewPolicyFromConfig creates a policy from the configuration surface.
// SkipRetry collapses the policy to a single attempt.
func NewPolicyFromConfig(cfg config.Retry, clock utils.Clock) Policy {
	attempts := cfg.MaxAttempts
	if cfg.SkipRetry {
		attempts = 1
	}
	return NewPolicy(
		time.Duration(cfg.StartDelayMs)*time.Millisecond,
		time.Duration(cfg.MaxDelayMs)*time.Millisecond,
		cfg.Multiplier,
		attempts,
		clock,
	)
}

// MaxAttempts returns the configured attempt bound.
func (p Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Do invokes fn up to MaxAttempts times, sleeping between attempts per the
// backoff schedule. retryable decides which errors are transient. The last
// error is returned once attempts are exhausted; non-retryable errors
// return immediately.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.backoff.NextDelay(attempt - 1)
			select {
			case <-p.clock.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
