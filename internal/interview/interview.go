// Package interview is the execution engine: it administers one survey to
// one simulated respondent for one iteration, invoking the answer
// generator once per question under dependency ordering, skip logic,
// shared rate limits and a retry policy.
package interview

import (
	"fmt"
	"log/slog"

	"github.com/surveysim/interview-core/internal/answer"
	"github.com/surveysim/interview-core/internal/graph"
	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/internal/retry"
	"github.com/surveysim/interview-core/pkg/logger"
	"github.com/surveysim/interview-core/pkg/models"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Params configures one interview. Survey and Answerer are required;
// everything else has working defaults.
type Params struct {
	Survey    *models.Survey
	Rules     models.Rules // default: the survey's declarative rules
	Persona   models.Persona
	Scenario  models.Scenario
	Iteration int

	Answerer  answer.Answerer
	Estimator answer.Estimator   // default: HeuristicEstimator
	Limiter   *ratelimit.Limiter // default: unlimited
	Clock     utils.Clock        // default: real clock
	Retry     retry.Policy       // default: single attempt

	StopOnFirstException   bool
	RaiseOnValidationError bool
	Logger                 *slog.Logger
}

// Interview owns all per-execution state: the cached dependency graph,
// the answer store, skip flags and the exception ledger. Only the rate
// limiter is shared with other interviews.
type Interview struct {
	id        string
	survey    *models.Survey
	rules     models.Rules
	persona   models.Persona
	scenario  models.Scenario
	iteration int

	answerer  answer.Answerer
	estimator answer.Estimator
	limiter   *ratelimit.Limiter
	clock     utils.Clock
	retry     retry.Policy

	stopOnFirst       bool
	raiseOnValidation bool
	logger            *slog.Logger

	graph    *graph.Graph
	handle   *Handle
	answers  *AnswerStore
	flags    *SkipFlags
	ledger   *Ledger
	skipEval *SkipEvaluator
	tasks    map[string]*Task
}

// New validates params and builds the dependency graph. A cyclic graph is
// a fatal configuration error: it is reported here, before any task is
// scheduled, and is not retryable.
func New(p Params) (*Interview, error) {
	if p.Survey == nil || len(p.Survey.Questions) == 0 {
		return nil, fmt.Errorf("interview requires a non-empty survey")
	}
	if p.Answerer == nil {
		return nil, fmt.Errorf("interview requires an answerer")
	}

	g, err := graph.Build(p.Survey)
	if err != nil {
		return nil, fmt.Errorf("malformed survey %q: %w", p.Survey.Name, err)
	}

	if p.Rules == nil {
		p.Rules = models.NewRules(p.Survey)
	}
	if p.Estimator == nil {
		p.Estimator = answer.HeuristicEstimator{}
	}
	if p.Clock == nil {
		p.Clock = utils.NewRealClock()
	}
	if p.Limiter == nil {
		p.Limiter = ratelimit.NewUnlimited("unlimited")
	}
	if p.Retry.MaxAttempts() < 1 {
		p.Retry = retry.NewPolicy(0, 0, 2.0, 1, p.Clock)
	}
	if p.Logger == nil {
		p.Logger = logger.Default
	}

	iv := &Interview{
		id:                utils.GenerateInterviewID(),
		survey:            p.Survey,
		rules:             p.Rules,
		persona:           p.Persona,
		scenario:          p.Scenario,
		iteration:         p.Iteration,
		answerer:          p.Answerer,
		estimator:         p.Estimator,
		limiter:           p.Limiter,
		clock:             p.Clock,
		retry:             p.Retry,
		stopOnFirst:       p.StopOnFirstException,
		raiseOnValidation: p.RaiseOnValidationError,
		graph:             g,
		answers:           NewAnswerStore(),
		flags:             NewSkipFlags(),
		ledger:            NewLedger(),
	}
	iv.logger = p.Logger.With("interview", iv.id, "survey", p.Survey.Name)
	iv.handle = newHandle(iv)
	iv.skipEval = NewSkipEvaluator(iv.handle)
	return iv, nil
}

// ID returns the interview's unique identifier.
func (iv *Interview) ID() string {
	return iv.id
}

// Handle returns the non-owning back-reference to this interview.
func (iv *Interview) Handle() *Handle {
	return iv.handle
}

// Ledger exposes the exception history for reporting.
func (iv *Interview) Ledger() *Ledger {
	return iv.ledger
}

// Answers exposes the answer store.
func (iv *Interview) Answers() *AnswerStore {
	return iv.answers
}

// Graph returns the cached dependency graph.
func (iv *Interview) Graph() *graph.Graph {
	return iv.graph
}

// Close tears the interview down: the handle is invalidated so any queued
// back-reference access resolves to ErrOwnerGone instead of resurrecting
// the interview.
func (iv *Interview) Close() {
	iv.handle.invalidate()
}

// StatusLog returns the append-only status log of a question's task from
// the most recent Run. The log is the sole source of truth for timing and
// diagnostic queries.
func (iv *Interview) StatusLog(question string) []models.StatusRecord {
	t, ok := iv.tasks[question]
	if !ok {
		return nil
	}
	return t.Log()
}

// contextSnapshot captures what the answerer and the skip rules see:
// scenario and persona fields plus the answers recorded so far.
func (iv *Interview) contextSnapshot() models.InterviewContext {
	return models.InterviewContext{
		SurveyName: iv.survey.Name,
		Iteration:  iv.iteration,
		Persona:    iv.persona,
		Scenario:   iv.scenario,
		Answers:    iv.answers.Snapshot(),
	}
}
