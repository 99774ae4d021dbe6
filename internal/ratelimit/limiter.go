// Package ratelimit implements dual token-bucket admission control per
// external-service identity. Each identity carries a request-count bucket
// and a token-volume bucket; Acquire blocks until both can be debited
// atomically. Waiters are served strictly in arrival order so a stream of
// cheap requests cannot starve an expensive one.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Cost is the resource estimate for one external call.
type Cost struct {
	Requests float64
	Tokens   float64
}

// bucket is classic leaky-bucket state: level refills continuously at
// refillPerSec up to capacity.
type bucket struct {
	capacity     float64
	level        float64
	refillPerSec float64
	last         time.Time
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.level += elapsed * b.refillPerSec
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.last = now
}

// waitFor returns how long until the bucket can cover need. Costs above
// capacity are clamped to capacity so they remain satisfiable.
func (b *bucket) waitFor(need float64) time.Duration {
	if need > b.capacity {
		need = b.capacity
	}
	if b.level >= need {
		return 0
	}
	missing := need - b.level
	return time.Duration(missing / b.refillPerSec * float64(time.Second))
}

// debit removes need units, clamped to capacity. Callers must have
// verified availability after a refill.
func (b *bucket) debit(need float64) {
	if need > b.capacity {
		need = b.capacity
	}
	b.level -= need
	if b.level < 0 {
		b.level = 0
	}
}

// Limiter admits work against one external-service identity. The zero
// value is not usable; construct with New or NewUnlimited.
type Limiter struct {
	identity  string
	unlimited bool
	clock     utils.Clock

	mu       sync.Mutex
	requests bucket
	tokens   bucket
	waiters  []chan struct{} // FIFO; head is the only waiter allowed to debit
}

// New creates a limiter with full buckets.
func New(identity string, cfg config.RateLimit, clock utils.Clock) *Limiter {
	if cfg.Unlimited {
		return NewUnlimited(identity)
	}
	now := clock.Now()
	return &Limiter{
		identity: identity,
		clock:    clock,
		requests: bucket{
			capacity:     cfg.Requests.Capacity,
			level:        cfg.Requests.Capacity,
			refillPerSec: cfg.Requests.RefillPerSec,
			last:         now,
		},
		tokens: bucket{
			capacity:     cfg.Tokens.Capacity,
			level:        cfg.Tokens.Capacity,
			refillPerSec: cfg.Tokens.RefillPerSec,
			last:         now,
		},
	}
}

// NewUnlimited creates the "infinity bucket" limiter: Acquire never waits.
func NewUnlimited(identity string) *Limiter {
	return &Limiter{identity: identity, unlimited: true}
}

// Identity returns the external-service identity this limiter guards.
func (l *Limiter) Identity() string {
	return l.identity
}

// Acquire blocks until cost units are available in both buckets, then
// debits them atomically. Cancelling ctx while waiting leaves both buckets
// undebited and surrenders the caller's queue position.
func (l *Limiter) Acquire(ctx context.Context, cost Cost) error {
	if l.unlimited {
		return ctx.Err()
	}

	turn := make(chan struct{})
	l.mu.Lock()
	l.waiters = append(l.waiters, turn)
	if len(l.waiters) == 1 {
		close(turn)
	}
	l.mu.Unlock()

	select {
	case <-turn:
	case <-ctx.Done():
		l.abandon(turn)
		return ctx.Err()
	}

	// Head of the line: loop until both buckets can cover the cost.
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.requests.refill(now)
		l.tokens.refill(now)

		wait := utils.MaxDuration(l.requests.waitFor(cost.Requests), l.tokens.waitFor(cost.Tokens))
		if wait <= 0 {
			l.requests.debit(cost.Requests)
			l.tokens.debit(cost.Tokens)
			l.advance()
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-l.clock.After(wait):
		case <-ctx.Done():
			l.abandon(turn)
			return ctx.Err()
		}
	}
}

// Levels returns the current observable bucket levels after a refill.
func (l *Limiter) Levels() (requests, tokens float64) {
	if l.unlimited {
		return 0, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.requests.refill(now)
	l.tokens.refill(now)
	return l.requests.level, l.tokens.level
}

// advance pops the head waiter and wakes the next one. Caller holds mu.
func (l *Limiter) advance() {
	l.waiters = l.waiters[1:]
	if len(l.waiters) > 0 {
		close(l.waiters[0])
	}
}

// abandon removes a waiter that gave up. If it was the head, the next
// waiter is woken; nothing is debited.
func (l *Limiter) abandon(turn chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == turn {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			if i == 0 && len(l.waiters) > 0 {
				// Wake the new head unless it was already woken.
				select {
				case <-l.waiters[0]:
				default:
					close(l.waiters[0])
				}
			}
			return
		}
	}
}
