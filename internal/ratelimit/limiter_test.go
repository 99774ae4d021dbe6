package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/utils"
)

func limitCfg(reqCap, reqRate, tokCap, tokRate float64) config.RateLimit {
	return config.RateLimit{
		Requests: config.Bucket{Capacity: reqCap, RefillPerSec: reqRate},
		Tokens:   config.Bucket{Capacity: tokCap, RefillPerSec: tokRate},
	}
}

// waitForTimers polls until the fake clock sees at least n registered
// timers, failing the test if that never happens.
func waitForTimers(t *testing.T, fc *utils.FakeClock, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for fc.PendingTimers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending timers, have %d", n, fc.PendingTimers())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAcquireImmediateWhenFull(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(10, 1, 1000, 100), fc)

	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 250}); err != nil {
		t.Fatalf("expected immediate acquire, got %v", err)
	}
	req, tok := l.Levels()
	if req != 9 || tok != 750 {
		t.Fatalf("expected levels (9, 750), got (%g, %g)", req, tok)
	}
}

func TestAcquireBlocksUntilRefill(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(1, 1, 100, 100), fc)

	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 10}); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 10})
	}()

	waitForTimers(t, fc, 1)
	select {
	case err := <-done:
		t.Fatalf("acquire completed before refill: %v", err)
	default:
	}

	fc.Advance(time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected acquire after refill, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire did not complete after refill")
	}

	req, tok := l.Levels()
	if req != 0 || tok != 90 {
		t.Fatalf("expected levels (0, 90), got (%g, %g)", req, tok)
	}
}

func TestLevelsNeverExceedCapacity(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(5, 10, 100, 1000), fc)

	fc.Advance(time.Hour)
	req, tok := l.Levels()
	if req != 5 || tok != 100 {
		t.Fatalf("expected levels clamped to capacity (5, 100), got (%g, %g)", req, tok)
	}
}

func TestAcquireClampsCostAboveCapacity(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(10, 1, 100, 10), fc)

	// A 500-token call exceeds the bucket; it must still be admitted once
	// the bucket is full rather than waiting forever.
	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 500}); err != nil {
		t.Fatalf("expected oversized acquire to succeed, got %v", err)
	}
	_, tok := l.Levels()
	if tok != 0 {
		t.Fatalf("expected token bucket drained, got %g", tok)
	}
}

func TestAcquireServesWaitersInOrder(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(10, 10, 100, 10), fc)

	// Drain the token bucket so both waiters have to queue.
	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 100}); err != nil {
		t.Fatalf("drain acquire failed: %v", err)
	}

	order := make(chan string, 2)
	go func() {
		if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 100}); err == nil {
			order <- "expensive"
		}
	}()
	waitForTimers(t, fc, 1)

	go func() {
		if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 1}); err == nil {
			order <- "cheap"
		}
	}()
	time.Sleep(10 * time.Millisecond)

	// The cheap call could be served in a fraction of a second, but it
	// arrived second and must not overtake the expensive head.
	fc.Advance(10 * time.Second)
	first := <-order

	waitForTimers(t, fc, 1)
	fc.Advance(time.Second)
	second := <-order

	if first != "expensive" || second != "cheap" {
		t.Fatalf("expected order [expensive cheap], got [%s %s]", first, second)
	}
}

func TestAcquireCancelLeavesBucketsUndebited(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(1, 1, 1000, 1000), fc)

	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 1}); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(ctx, Cost{Requests: 1, Tokens: 1})
	}()
	waitForTimers(t, fc, 1)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	req, tok := l.Levels()
	if req != 0 || tok != 999 {
		t.Fatalf("expected levels (0, 999) after abandoned wait, got (%g, %g)", req, tok)
	}

	// The queue must not be wedged by the abandoned waiter.
	fc.Advance(time.Second)
	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 1}); err != nil {
		t.Fatalf("expected acquire after abandon, got %v", err)
	}
}

func TestAcquireHeadCancelWakesNextWaiter(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	l := New("svc", limitCfg(1, 1, 1000, 1000), fc)

	if err := l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 1}); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan error, 1)
	go func() {
		doneA <- l.Acquire(ctxA, Cost{Requests: 1, Tokens: 1})
	}()
	waitForTimers(t, fc, 1)

	doneB := make(chan error, 1)
	go func() {
		doneB <- l.Acquire(context.Background(), Cost{Requests: 1, Tokens: 1})
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	if err := <-doneA; err != context.Canceled {
		t.Fatalf("expected context.Canceled for head, got %v", err)
	}

	// B inherits the head slot and registers its own timer alongside the
	// abandoned one.
	waitForTimers(t, fc, 2)
	fc.Advance(time.Second)
	if err := <-doneB; err != nil {
		t.Fatalf("expected successor to acquire, got %v", err)
	}
}

func TestUnlimitedNeverWaits(t *testing.T) {
	l := NewUnlimited("free")
	if err := l.Acquire(context.Background(), Cost{Requests: 1e9, Tokens: 1e9}); err != nil {
		t.Fatalf("expected unlimited acquire, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx, Cost{Requests: 1}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRegistrySharesAndRefCounts(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	cfg := limitCfg(10, 1, 100, 10)
	cfg.Identity = "openai:gpt"
	r := NewRegistry([]config.RateLimit{cfg}, fc)

	a := r.Checkout("openai:gpt")
	b := r.Checkout("openai:gpt")
	if a != b {
		t.Fatalf("expected the same limiter for one identity")
	}
	if r.Active() != 1 {
		t.Fatalf("expected 1 active identity, got %d", r.Active())
	}

	r.Release("openai:gpt")
	if r.Active() != 1 {
		t.Fatalf("expected limiter retained while referenced, got %d active", r.Active())
	}
	r.Release("openai:gpt")
	if r.Active() != 0 {
		t.Fatalf("expected limiter dropped, got %d active", r.Active())
	}

	// Fresh checkout after full release builds a new limiter.
	c := r.Checkout("openai:gpt")
	if c == a {
		t.Fatalf("expected a fresh limiter after release")
	}
	r.Release("openai:gpt")
}

func TestRegistryUnconfiguredIdentityIsUnlimited(t *testing.T) {
	fc := utils.NewFakeClock(time.Unix(0, 0))
	r := NewRegistry(nil, fc)

	l := r.Checkout("anything")
	defer r.Release("anything")
	if err := l.Acquire(context.Background(), Cost{Requests: 1e6, Tokens: 1e6}); err != nil {
		t.Fatalf("expected unlimited acquire, got %v", err)
	}
}
