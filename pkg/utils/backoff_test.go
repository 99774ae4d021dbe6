package utils

import (
	"testing"
	"time"
)

func TestNextDelayGrowsExponentially(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 10*time.Second, 2.0)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
	}
	for _, tc := range tests {
		if got := b.NextDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestNextDelayCapped(t *testing.T) {
	b := NewBackoff(time.Second, 3*time.Second, 2.0)
	if got := b.NextDelay(5); got != 3*time.Second {
		t.Fatalf("expected cap at 3s, got %v", got)
	}
	// A very large attempt index must not overflow past the cap.
	if got := b.NextDelay(500); got != 3*time.Second {
		t.Fatalf("expected cap at 3s for large attempt, got %v", got)
	}
}

func TestNewBackoffNormalizes(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 0, 0.5)
	if b.Multiplier != 2.0 {
		t.Fatalf("expected multiplier normalized to 2.0, got %g", b.Multiplier)
	}
	if b.MaxDelay != 30*time.Second {
		t.Fatalf("expected max delay normalized to 30s, got %v", b.MaxDelay)
	}

	b = NewBackoff(time.Minute, time.Second, 2.0)
	if b.MaxDelay != time.Minute {
		t.Fatalf("expected max delay raised to start delay, got %v", b.MaxDelay)
	}
}

func TestTotalDelay(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 10*time.Second, 2.0)
	// 100 + 200 + 400 = 700ms across three waits.
	if got := b.TotalDelay(3); got != 700*time.Millisecond {
		t.Fatalf("expected 700ms, got %v", got)
	}
	if got := b.TotalDelay(0); got != 0 {
		t.Fatalf("expected zero total for zero waits, got %v", got)
	}
}
