package ratelimit

import (
	"sync"

	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Registry hands out shared limiters keyed by external-service identity.
// Interviews targeting the same identity share one limiter; the registry
// reference-counts checkouts so idle limiters can be dropped.
type Registry struct {
	clock utils.Clock

	mu      sync.Mutex
	entries map[string]*registryEntry
	configs map[string]config.RateLimit
}

type registryEntry struct {
	limiter *Limiter
	refs    int
}

// NewRegistry creates a registry from the configured per-identity limits.
// Identities without a configured limit get an unlimited limiter.
func NewRegistry(limits []config.RateLimit, clock utils.Clock) *Registry {
	configs := make(map[string]config.RateLimit, len(limits))
	for _, rl := range limits {
		configs[rl.Identity] = rl
	}
	return &Registry{
		clock:   clock,
		entries: make(map[string]*registryEntry),
		configs: configs,
	}
}

// Checkout returns the shared limiter for an identity, creating it on
// first use. Every Checkout must be paired with a Release.
func (r *Registry) Checkout(identity string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[identity]; ok {
		e.refs++
		return e.limiter
	}

	var limiter *Limiter
	if cfg, ok := r.configs[identity]; ok {
		limiter = New(identity, cfg, r.clock)
	} else {
		limiter = NewUnlimited(identity)
	}
	r.entries[identity] = &registryEntry{limiter: limiter, refs: 1}
	return limiter
}

// Release drops one reference to an identity's limiter; the limiter is
// discarded once no interview holds it.
func (r *Registry) Release(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[identity]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, identity)
	}
}

// Active returns the number of identities with live limiters.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
