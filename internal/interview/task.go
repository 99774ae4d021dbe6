package interview

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/surveysim/interview-core/internal/answer"
	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/pkg/models"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Task is the schedulable unit of work for answering one question. It
// moves through a fixed state machine and appends every transition to an
// append-only status log, which is the sole source of truth for timing
// queries.
type Task struct {
	question models.Question
	index    int
	prereqs  []*Task
	cost     ratelimit.Cost
	handle   *Handle
	clock    utils.Clock
	logger   *slog.Logger

	mu         sync.Mutex
	status     models.TaskStatus
	log        []models.StatusRecord
	attempts   int
	failure    string
	skipReason string

	done chan struct{}
}

func newTask(q models.Question, index int, cost ratelimit.Cost, handle *Handle, clock utils.Clock, logger *slog.Logger) *Task {
	t := &Task{
		question: q,
		index:    index,
		cost:     cost,
		handle:   handle,
		clock:    clock,
		logger:   logger.With("question", q.Name),
		done:     make(chan struct{}),
	}
	t.mu.Lock()
	t.status = models.StatusNotStarted
	t.log = append(t.log, models.StatusRecord{Status: models.StatusNotStarted, At: clock.Now()})
	t.mu.Unlock()
	// A task starts waiting on its prerequisites immediately on creation.
	t.transition(models.StatusWaitingForDependencies)
	return t
}

// Question returns the question this task answers.
func (t *Task) Question() models.Question {
	return t.question
}

// Status returns the current state.
func (t *Task) Status() models.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Log returns a copy of the append-only status log.
func (t *Task) Log() []models.StatusRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.StatusRecord, len(t.log))
	copy(out, t.log)
	return out
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Attempts returns how many answerer invocations the task made.
func (t *Task) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *Task) transition(to models.TaskStatus) {
	t.mu.Lock()
	t.status = to
	t.log = append(t.log, models.StatusRecord{Status: to, At: t.clock.Now()})
	t.mu.Unlock()
	t.logger.Debug("task transition", "status", to)
}

func (t *Task) succeed() {
	t.transition(models.StatusSuccess)
	close(t.done)
}

func (t *Task) failTerminal(reason string) {
	t.mu.Lock()
	t.failure = reason
	t.mu.Unlock()
	t.transition(models.StatusFailed)
	close(t.done)
}

func (t *Task) skipTerminal(reason string) {
	t.mu.Lock()
	t.skipReason = reason
	t.mu.Unlock()
	t.transition(models.StatusSkipped)
	close(t.done)
}

// run drives the task to a terminal state. It returns a non-nil error only
// when the failure must escalate to the orchestrator: context
// cancellation, stop-on-first-exception, or a validation error under
// raise-on-validation.
func (t *Task) run(ctx context.Context) error {
	// Completion of prerequisites, not their success, unblocks this task.
	for _, p := range t.prereqs {
		select {
		case <-p.done:
		case <-ctx.Done():
			t.failTerminal("interview aborted")
			return ctx.Err()
		}
	}

	iv, err := t.handle.Owner()
	if err != nil {
		t.failTerminal(err.Error())
		return nil
	}

	if done, err := t.skipIfFlagged(iv); err != nil {
		t.failTerminal(err.Error())
		return nil
	} else if done {
		return nil
	}

	t.transition(models.StatusWaitingForCapacity)
	if err := iv.limiter.Acquire(ctx, t.cost); err != nil {
		t.failTerminal("interview aborted")
		return ctx.Err()
	}

	// An upstream answer may have landed while this task sat in the
	// admission queue; honour any flag set in the meantime.
	if done, err := t.skipIfFlagged(iv); err != nil {
		t.failTerminal(err.Error())
		return nil
	} else if done {
		return nil
	}

	t.transition(models.StatusInFlight)
	result, callErr := t.invoke(ctx, iv)
	if callErr != nil {
		return t.settleFailure(ctx, iv, callErr)
	}

	if err := iv.answers.Record(t.question.Name, models.Answer{
		Value:    result.Value,
		Comment:  result.Comment,
		Artifact: result.Artifact,
	}); err != nil {
		t.logger.Warn("answer already recorded", "error", err)
	}
	iv.ledger.RecordFixed(t.question.Name)

	if err := iv.skipEval.PropagateAfter(t.index); err != nil {
		t.logger.Warn("skip propagation unavailable", "error", err)
	}

	t.succeed()
	return nil
}

// skipIfFlagged consults the sticky flags and the pre-run rule check.
// Returns done=true when the task ended in SKIPPED.
func (t *Task) skipIfFlagged(iv *Interview) (bool, error) {
	if reason, ok := iv.flags.Get(t.question.Name); ok {
		iv.answers.MarkSkipped(t.question.Name)
		t.skipTerminal(reason)
		return true, nil
	}
	skip, err := iv.skipEval.ShouldSkip(t.index)
	if err != nil {
		return false, err
	}
	if skip {
		iv.answers.MarkSkipped(t.question.Name)
		t.skipTerminal("skip rule matched before run")
		return true, nil
	}
	return false, nil
}

// invoke calls the answerer under the retry policy. Each failed attempt is
// recorded in the exception ledger with a snapshot of the answers known at
// failure time.
func (t *Task) invoke(ctx context.Context, iv *Interview) (models.Result, error) {
	var result models.Result
	err := iv.retry.Do(ctx, answer.IsTransient, func(ctx context.Context) error {
		t.mu.Lock()
		t.attempts++
		t.mu.Unlock()

		res, err := iv.answerer.Answer(ctx, t.question, iv.contextSnapshot())
		if err != nil {
			iv.ledger.Add(t.question.Name, classifyFailure(err), t.clock.Now(), iv.answers.SnapshotValues())
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// settleFailure finishes a task whose call chain failed and decides
// whether to escalate to the orchestrator.
func (t *Task) settleFailure(ctx context.Context, iv *Interview, callErr error) error {
	if ctx.Err() != nil {
		t.failTerminal("interview aborted")
		return ctx.Err()
	}

	t.failTerminal(callErr.Error())
	t.logger.Warn("question failed", "error", callErr, "attempts", t.Attempts())

	if iv.raiseOnValidation && answer.IsValidation(callErr) {
		return callErr
	}
	if iv.stopOnFirst {
		return callErr
	}
	return nil
}

func classifyFailure(err error) FailureKind {
	switch {
	case answer.IsTransient(err):
		return FailureTransient
	case answer.IsValidation(err):
		return FailureValidation
	case errors.Is(err, ErrOwnerGone):
		return FailureOwnerGone
	default:
		return FailureInternal
	}
}
