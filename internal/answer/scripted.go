package answer

import (
	"context"
	"fmt"

	"github.com/surveysim/interview-core/pkg/models"
)

// Scripted is a deterministic answerer driven by a fixed script. Questions
// without a scripted value get a synthesized placeholder answer, so it is
// usable both for dry runs and for tests.
type Scripted struct {
	// Values maps question name to the answer value to return.
	Values map[string]string
	// Comments optionally maps question name to a free-form comment.
	Comments map[string]string
}

// NewScripted creates a scripted answerer from a value map.
func NewScripted(values map[string]string) *Scripted {
	return &Scripted{Values: values}
}

// Answer implements Answerer deterministically.
func (s *Scripted) Answer(_ context.Context, q models.Question, _ models.InterviewContext) (models.Result, error) {
	value, ok := s.Values[q.Name]
	if !ok {
		if len(q.Options) > 0 {
			value = q.Options[0]
		} else {
			value = fmt.Sprintf("scripted answer for %s", q.Name)
		}
	}
	return models.Result{
		Value:    value,
		Comment:  s.Comments[q.Name],
		Artifact: fmt.Sprintf("scripted:%s", q.Name),
		Valid:    true,
	}, nil
}

// FailedResult implements Answerer.
func (s *Scripted) FailedResult(reason string) models.Result {
	return models.Result{Valid: false, FailureReason: reason}
}
