package interviewd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/surveysim/interview-core/internal/answer"
	"github.com/surveysim/interview-core/internal/cache"
	"github.com/surveysim/interview-core/internal/interview"
	"github.com/surveysim/interview-core/internal/metrics"
	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/internal/retry"
	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/logger"
	"github.com/surveysim/interview-core/pkg/models"
	"github.com/surveysim/interview-core/pkg/utils"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// RunExecutor manages asynchronous interview execution and per-run
// cancellation. One limiter per external-service identity is checked out
// from the shared registry for the lifetime of each run.
type RunExecutor struct {
	store    *RunStore
	cfg      *config.Config
	registry *ratelimit.Registry
	notifier *Notifier
	clock    utils.Clock
	cacheDB  *cache.Store // nil when caching is disabled

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRunExecutor creates an executor over the given store and shared
// rate-limiter registry.
func NewRunExecutor(store *RunStore, cfg *config.Config, registry *ratelimit.Registry) *RunExecutor {
	e := &RunExecutor{
		store:    store,
		cfg:      cfg,
		registry: registry,
		notifier: NewNotifier(),
		clock:    utils.NewRealClock(),
		cancels:  make(map[string]context.CancelFunc),
	}
	if cfg.Answerer.CachePath != "" {
		db, err := cache.Open(cfg.Answerer.CachePath)
		if err != nil {
			logger.Warn("response cache unavailable", "path", cfg.Answerer.CachePath, "error", err)
		} else {
			e.cacheDB = db
		}
	}
	return e
}

// Start begins executing a run asynchronously. Returns the updated run
// state (running) or an error.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status == RunStatusRunning {
		return rec, nil
	}
	if rec.Run.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := e.store.SetStatus(runID, RunStatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	e.mu.Unlock()

	go e.runInterview(ctx, runID)
	return updated, nil
}

// Stop requests cancellation for a running run and marks it cancelled.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	return e.store.SetStatus(runID, RunStatusCancelled, "")
}

// Close releases the executor's response cache.
func (e *RunExecutor) Close() {
	if e.cacheDB != nil {
		e.cacheDB.Close()
	}
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) runInterview(ctx context.Context, runID string) {
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		return
	}
	input := rec.Input
	log := logger.With("run_id", runID, "survey", input.Survey.Name)

	identity := e.cfg.Answerer.Identity
	limiter := e.registry.Checkout(identity)
	defer e.registry.Release(identity)

	collector := metrics.NewCollector()
	answerer := e.buildAnswerer(input, collector)

	iv, err := interview.New(interview.Params{
		Survey:                 input.Survey,
		Persona:                input.Persona,
		Scenario:               input.Scenario,
		Iteration:              input.Iteration,
		Answerer:               answerer,
		Limiter:                limiter,
		Clock:                  e.clock,
		Retry:                  retry.NewPolicyFromConfig(e.cfg.Retry, e.clock),
		StopOnFirstException:   e.cfg.StopOnFirstException,
		RaiseOnValidationError: e.cfg.RaiseOnValidationError,
		Logger:                 log,
	})
	if err != nil {
		log.Error("interview setup failed", "error", err)
		e.store.SetStatus(runID, RunStatusFailed, err.Error())
		return
	}
	defer iv.Close()

	answers, outcomes, runErr := iv.Run(ctx)
	collector.Stop()
	for _, o := range outcomes {
		collector.RecordOutcome(o)
	}
	summary := collector.Summary(
		iv.Ledger().QuestionsWithFailures(),
		iv.Ledger().QuestionsWithUnfixedFailures(),
	)

	if err := e.store.SetResults(runID, answers, outcomes, iv.Ledger().Entries(), summary); err != nil {
		log.Error("failed to store results", "error", err)
	}

	var final *RunRecord
	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled):
		final, _ = e.store.SetStatus(runID, RunStatusCancelled, "")
	case runErr != nil:
		final, _ = e.store.SetStatus(runID, RunStatusFailed, runErr.Error())
	default:
		final, _ = e.store.SetStatus(runID, RunStatusCompleted, "")
	}

	log.Info("run finished", "status", final.Run.Status,
		"answered", summary.Answered, "skipped", summary.Skipped, "failed", summary.Failed)

	if input.CallbackURL != "" {
		e.notifier.Notify(input.CallbackURL, input.CallbackSecret, final)
	}
}

// buildAnswerer assembles the answerer chain for one run: scripted or
// HTTP, optionally cached, always latency-instrumented.
func (e *RunExecutor) buildAnswerer(input *RunInput, collector *metrics.Collector) answer.Answerer {
	var base answer.Answerer
	if len(input.Script) > 0 {
		base = answer.NewScripted(input.Script)
	} else {
		base = answer.NewClient(e.cfg.Answerer.Endpoint,
			time.Duration(e.cfg.Answerer.TimeoutMs)*time.Millisecond)
	}
	if e.cacheDB != nil {
		base = answer.NewCached(base, e.cacheDB, logger.Default)
	}
	return &timedAnswerer{inner: base, collector: collector}
}

// timedAnswerer records per-call latency into the run's collector.
type timedAnswerer struct {
	inner     answer.Answerer
	collector *metrics.Collector
}

func (t *timedAnswerer) Answer(ctx context.Context, q models.Question, ic models.InterviewContext) (models.Result, error) {
	start := time.Now()
	res, err := t.inner.Answer(ctx, q, ic)
	t.collector.RecordLatency(time.Since(start))
	return res, err
}

func (t *timedAnswerer) FailedResult(reason string) models.Result {
	return t.inner.FailedResult(reason)
}
