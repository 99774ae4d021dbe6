// Package metrics aggregates per-run interview statistics: outcome counts,
// answerer attempts/retries, and call latency distribution.
package metrics

import (
	"sync"
	"time"

	"github.com/surveysim/interview-core/pkg/models"
	"github.com/surveysim/interview-core/pkg/utils"
)

// Summary is the finalized view of one interview run.
type Summary struct {
	Answered  int `json:"answered"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Unreached int `json:"unreached"`

	Attempts int `json:"attempts"`
	Retries  int `json:"retries"`

	FailedQuestions  int `json:"failed_questions"`
	UnfixedQuestions int `json:"unfixed_questions"`

	LatencyMsP50 float64 `json:"latency_ms_p50"`
	LatencyMsP95 float64 `json:"latency_ms_p95"`
	LatencyMsMax float64 `json:"latency_ms_max"`

	DurationMs int64 `json:"duration_ms"`
}

// Collector accumulates interview metrics. Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	started   time.Time
	ended     time.Time
	outcomes  map[models.OutcomeKind]int
	attempts  int
	retries   int
	latencies []float64 // milliseconds
}

// NewCollector creates a collector with the start time set to now.
func NewCollector() *Collector {
	return &Collector{
		started:  time.Now(),
		outcomes: make(map[models.OutcomeKind]int),
	}
}

// RecordOutcome tallies one per-question outcome. Attempts beyond the
// first count as retries.
func (c *Collector) RecordOutcome(o models.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o.Kind]++
	c.attempts += o.Attempts
	if o.Attempts > 1 {
		c.retries += o.Attempts - 1
	}
}

// RecordLatency records one answerer call duration.
func (c *Collector) RecordLatency(d time.Duration) {
	c.mu.Lock()
	c.latencies = append(c.latencies, float64(d)/float64(time.Millisecond))
	c.mu.Unlock()
}

// Stop marks the end of collection.
func (c *Collector) Stop() {
	c.mu.Lock()
	c.ended = time.Now()
	c.mu.Unlock()
}

// Summary computes the finalized view. Ledger counts are supplied by the
// caller because the exception history belongs to the interview.
func (c *Collector) Summary(failedQuestions, unfixedQuestions int) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := c.ended
	if end.IsZero() {
		end = time.Now()
	}
	return Summary{
		Answered:         c.outcomes[models.OutcomeAnswered],
		Skipped:          c.outcomes[models.OutcomeSkipped],
		Failed:           c.outcomes[models.OutcomeFailed],
		Unreached:        c.outcomes[models.OutcomeUnreached],
		Attempts:         c.attempts,
		Retries:          c.retries,
		FailedQuestions:  failedQuestions,
		UnfixedQuestions: unfixedQuestions,
		LatencyMsP50:     utils.Percentile(c.latencies, 50),
		LatencyMsP95:     utils.Percentile(c.latencies, 95),
		LatencyMsMax:     utils.Percentile(c.latencies, 100),
		DurationMs:       end.Sub(c.started).Milliseconds(),
	}
}
