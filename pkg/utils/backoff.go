package utils

import (
	"math"
	"time"
)

// Backoff computes geometrically growing delays capped at a maximum.
// Attempt numbering is 0-indexed: NextDelay(0) is the delay before the
// second attempt.
type Backoff struct {
	StartDelay time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// NewBackoff creates a Backoff, normalizing degenerate parameters.
func NewBackoff(start, max time.Duration, multiplier float64) Backoff {
	if multiplier < 1 {
		multiplier = 2.0
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if max < start {
		max = start
	}
	return Backoff{StartDelay: start, MaxDelay: max, Multiplier: multiplier}
}

// NextDelay returns the delay for the given 0-indexed attempt.
func (b Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(b.StartDelay) * math.Pow(b.Multiplier, float64(attempt))
	if delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	return time.Duration(delay)
}

// TotalDelay returns the cumulative delay across the first n waits.
func (b Backoff) TotalDelay(n int) time.Duration {
	var total time.Duration
	for i := 0; i < n; i++ {
		total += b.NextDelay(i)
	}
	return total
}
