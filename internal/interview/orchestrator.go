package interview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/surveysim/interview-core/pkg/models"
)

// Run executes the interview: one task per question, launched
// concurrently and joined. Individual failures are collected, not raised,
// unless stop-on-first-exception or raise-on-validation is configured.
// Whatever happens, every question gets a final answer entry (value,
// skipped sentinel, or no-answer marker) and exactly one outcome record.
func (iv *Interview) Run(ctx context.Context) (map[string]models.Answer, []models.Outcome, error) {
	iv.logger.Info("interview starting", "questions", iv.survey.Len(), "iteration", iv.iteration)

	snapshot := iv.contextSnapshot()
	tasks := make([]*Task, iv.survey.Len())
	byName := make(map[string]*Task, iv.survey.Len())
	for i, q := range iv.survey.Questions {
		cost := iv.estimator.Estimate(q, snapshot)
		t := newTask(q, i, cost, iv.handle, iv.clock, iv.logger)
		tasks[i] = t
		byName[q.Name] = t
	}
	iv.tasks = byName

	// Wire each task to its prerequisite tasks from the cached DAG.
	for _, t := range tasks {
		for _, name := range iv.graph.Prerequisites(t.question.Name) {
			t.prereqs = append(t.prereqs, byName[name])
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			return t.run(gctx)
		})
	}
	runErr := g.Wait()

	iv.answers.Finalize(iv.survey)
	outcomes := iv.collectOutcomes(tasks)

	iv.logger.Info("interview finished",
		"failed_questions", iv.ledger.QuestionsWithFailures(),
		"unfixed_failures", iv.ledger.QuestionsWithUnfixedFailures(),
		"error", runErr)

	return iv.answers.Snapshot(), outcomes, runErr
}

func (iv *Interview) collectOutcomes(tasks []*Task) []models.Outcome {
	outcomes := make([]models.Outcome, len(tasks))
	for i, t := range tasks {
		o := models.Outcome{Question: t.question.Name, Attempts: t.Attempts()}
		switch t.Status() {
		case models.StatusSuccess:
			o.Kind = models.OutcomeAnswered
			if a, ok := iv.answers.Get(t.question.Name); ok {
				o.Value = a.Value
			}
		case models.StatusSkipped:
			o.Kind = models.OutcomeSkipped
			t.mu.Lock()
			o.SkipReason = t.skipReason
			t.mu.Unlock()
		case models.StatusFailed:
			o.Kind = models.OutcomeFailed
			t.mu.Lock()
			o.Failure = t.failure
			t.mu.Unlock()
		default:
			o.Kind = models.OutcomeUnreached
		}
		outcomes[i] = o
	}
	return outcomes
}
