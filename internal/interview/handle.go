package interview

import (
	"errors"
	"sync"
)

// ErrOwnerGone is returned when a component's back-reference to its
// Interview is resolved after the interview was torn down.
var ErrOwnerGone = errors.New("interview owner no longer available")

// Handle is the non-owning back-reference to an Interview. The orchestrator
// invalidates it on teardown; every dependent component resolves the owner
// through the handle and gets ErrOwnerGone afterwards instead of touching a
// reclaimed interview.
type Handle struct {
	mu    sync.RWMutex
	owner *Interview
}

func newHandle(iv *Interview) *Handle {
	return &Handle{owner: iv}
}

// Owner resolves the back-reference.
func (h *Handle) Owner() (*Interview, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.owner == nil {
		return nil, ErrOwnerGone
	}
	return h.owner, nil
}

// Valid reports whether the owner is still reachable.
func (h *Handle) Valid() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.owner != nil
}

func (h *Handle) invalidate() {
	h.mu.Lock()
	h.owner = nil
	h.mu.Unlock()
}
