package interview

import (
	"fmt"
	"sync"

	"github.com/surveysim/interview-core/pkg/models"
)

// AnswerStore maps question name to its finalized answer. Entries are
// write-once; the only legal rewrite is the skip-evaluation rewrite to the
// skipped sentinel. The store grows monotonically until Finalize fills
// every question never reached with the explicit no-answer marker.
type AnswerStore struct {
	mu      sync.Mutex
	answers map[string]models.Answer
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]models.Answer)}
}

// Record writes the answer for a question exactly once.
func (s *AnswerStore) Record(name string, a models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.answers[name]; exists {
		return fmt.Errorf("answer for %q already recorded", name)
	}
	s.answers[name] = a
	return nil
}

// MarkSkipped writes the skipped sentinel. This is the one rewrite path
// allowed by skip evaluation.
func (s *AnswerStore) MarkSkipped(name string) {
	s.mu.Lock()
	s.answers[name] = models.SkippedAnswer()
	s.mu.Unlock()
}

// Get returns the answer recorded for a question.
func (s *AnswerStore) Get(name string) (models.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[name]
	return a, ok
}

// Len returns the number of recorded answers.
func (s *AnswerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Snapshot returns a copy of all recorded answers.
func (s *AnswerStore) Snapshot() map[string]models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Answer, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// SnapshotValues returns a copy of answered values only, used for
// exception-ledger snapshots.
func (s *AnswerStore) SnapshotValues() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		if !v.Skipped && !v.NoAnswer {
			out[k] = v.Value
		}
	}
	return out
}

// Finalize fills every survey question without an entry with the explicit
// no-answer marker.
func (s *AnswerStore) Finalize(survey *models.Survey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range survey.Questions {
		if _, ok := s.answers[q.Name]; !ok {
			s.answers[q.Name] = models.NoAnswerMarker()
		}
	}
}
