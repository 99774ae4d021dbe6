package utils

import (
	"sync"
	"time"
)

// Clock is the time source used by bucket refill, status logs and backoff
// scheduling. Injecting it keeps timing-sensitive code testable.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall-clock implementation of Clock.
type RealClock struct{}

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() RealClock {
	return RealClock{}
}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// After waits for d on the system timer.
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// FakeClock is a manually-advanced Clock for deterministic tests.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFakeClock creates a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start}
}

// Now returns the fake current time.
func (fc *FakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.current
}

// After registers a timer that fires when the clock is advanced past d.
func (fc *FakeClock) After(d time.Duration) <-chan time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := fc.current.Add(d)
	if d <= 0 {
		ch <- fc.current
		return ch
	}
	fc.timers = append(fc.timers, &fakeTimer{deadline: deadline, ch: ch})
	return ch
}

// Advance moves the fake time forward and fires any expired timers.
func (fc *FakeClock) Advance(d time.Duration) {
	fc.mu.Lock()
	fc.current = fc.current.Add(d)
	now := fc.current

	remaining := fc.timers[:0]
	var fired []*fakeTimer
	for _, t := range fc.timers {
		if !t.deadline.After(now) {
			fired = append(fired, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	fc.timers = remaining
	fc.mu.Unlock()

	for _, t := range fired {
		t.ch <- now
	}
}

// PendingTimers reports how many timers are waiting to fire.
func (fc *FakeClock) PendingTimers() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.timers)
}
