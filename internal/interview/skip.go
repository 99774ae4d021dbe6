package interview

import (
	"fmt"
	"sync"

	"github.com/surveysim/interview-core/pkg/models"
)

// SkipFlags is the sticky per-question cancellation map. A flag, once set,
// is never unset within an interview; tasks still waiting consult it
// before doing any work.
type SkipFlags struct {
	mu      sync.Mutex
	reasons map[string]string
}

// NewSkipFlags creates an empty flag map.
func NewSkipFlags() *SkipFlags {
	return &SkipFlags{reasons: make(map[string]string)}
}

// Set marks a question skipped. The first reason recorded wins.
func (f *SkipFlags) Set(name, reason string) {
	f.mu.Lock()
	if _, ok := f.reasons[name]; !ok {
		f.reasons[name] = reason
	}
	f.mu.Unlock()
}

// Get returns the skip reason for a question, if flagged.
func (f *SkipFlags) Get(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason, ok := f.reasons[name]
	return reason, ok
}

// SkipEvaluator answers the pre-run bypass check and propagates
// post-answer cancellation. It holds only the non-owning handle to its
// interview: after teardown both operations fail with ErrOwnerGone.
type SkipEvaluator struct {
	handle *Handle
}

// NewSkipEvaluator creates an evaluator bound to an interview handle.
func NewSkipEvaluator(handle *Handle) *SkipEvaluator {
	return &SkipEvaluator{handle: handle}
}

// ShouldSkip asks the survey's rules whether the question at index should
// be bypassed given the answers recorded so far. The check exists because
// a task can race ahead of a rule that only becomes decidable once an
// upstream answer lands.
func (ev *SkipEvaluator) ShouldSkip(index int) (bool, error) {
	iv, err := ev.handle.Owner()
	if err != nil {
		return false, err
	}
	return iv.rules.ShouldSkip(index, iv.contextSnapshot()), nil
}

// PropagateAfter computes the actual next reachable index after the
// question at index was answered and flags everything jumped over. Tasks
// already in flight or terminal are unaffected; flags only stop tasks
// still waiting.
func (ev *SkipEvaluator) PropagateAfter(index int) error {
	iv, err := ev.handle.Owner()
	if err != nil {
		return err
	}

	next := iv.rules.NextIndex(index, iv.contextSnapshot())
	end := next
	if next == models.EndOfSurvey {
		end = iv.survey.Len()
	}

	answered := iv.survey.Questions[index].Name
	for i := index + 1; i < end; i++ {
		name := iv.survey.Questions[i].Name
		iv.flags.Set(name, fmt.Sprintf("unreachable after answer to %s", answered))
	}
	return nil
}
