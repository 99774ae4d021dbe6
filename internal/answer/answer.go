// Package answer defines the answer-generation collaborator contract and
// its implementations: an HTTP client for a hosted generation service, a
// deterministic scripted answerer, and a caching wrapper.
package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/pkg/models"
)

// ErrNoResponse is the transient classification: the service did not
// produce a usable response (timeout, unavailability). Calls failing with
// it are eligible for retry.
var ErrNoResponse = errors.New("answerer gave no response")

// ValidationError marks a structurally invalid answer. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer: %s", e.Reason)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// IsValidation reports whether err is an answer-shape failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Answerer generates one answer per question. Implementations may return
// ErrNoResponse (retryable) or a *ValidationError (not retryable).
type Answerer interface {
	Answer(ctx context.Context, q models.Question, ic models.InterviewContext) (models.Result, error)
	// FailedResult builds the bookkeeping result used when a question is
	// skipped, cancelled, or its owner is gone.
	FailedResult(reason string) models.Result
}

// Estimator is the cost collaborator consumed by the rate limiter.
type Estimator interface {
	Estimate(q models.Question, ic models.InterviewContext) ratelimit.Cost
}

// HeuristicEstimator sizes calls from prompt and memory length. Token
// counts are a rough chars/4 approximation plus the answer budget.
type HeuristicEstimator struct {
	// BaseTokens is added to every estimate for the fixed prompt scaffold.
	BaseTokens float64
}

// Estimate implements Estimator.
func (e HeuristicEstimator) Estimate(q models.Question, ic models.InterviewContext) ratelimit.Cost {
	chars := len(q.Text)
	for _, opt := range q.Options {
		chars += len(opt)
	}
	for _, name := range q.Memory {
		if a, ok := ic.Answers[name]; ok {
			chars += len(a.Value)
		}
	}

	tokens := e.BaseTokens + float64(chars)/4
	if q.MaxTokens > 0 {
		tokens += float64(q.MaxTokens)
	} else {
		tokens += 256
	}
	return ratelimit.Cost{Requests: 1, Tokens: tokens}
}
