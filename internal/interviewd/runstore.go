package interviewd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/surveysim/interview-core/internal/interview"
	"github.com/surveysim/interview-core/internal/metrics"
	"github.com/surveysim/interview-core/pkg/models"
	"github.com/surveysim/interview-core/pkg/utils"
)

// RunStatus is the lifecycle state of one daemon-managed interview run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the run can no longer change state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// RunInput is the request payload that defines one run.
type RunInput struct {
	Survey    *models.Survey  `json:"survey"`
	Persona   models.Persona  `json:"persona,omitempty"`
	Scenario  models.Scenario `json:"scenario,omitempty"`
	Iteration int             `json:"iteration,omitempty"`
	// Script, when non-empty, answers questions deterministically instead
	// of calling the configured answer service.
	Script map[string]string `json:"script,omitempty"`
	// CallbackURL receives a completion notification when set.
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

// Run is the externally visible run state.
type Run struct {
	ID              string    `json:"id"`
	Status          RunStatus `json:"status"`
	SurveyName      string    `json:"survey_name"`
	Error           string    `json:"error,omitempty"`
	CreatedAtUnixMs int64     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64     `json:"ended_at_unix_ms,omitempty"`
}

// RunRecord is a run plus its input and, once finished, its results.
type RunRecord struct {
	Run      *Run                     `json:"run"`
	Input    *RunInput                `json:"input,omitempty"`
	Answers  map[string]models.Answer `json:"answers,omitempty"`
	Outcomes []models.Outcome         `json:"outcomes,omitempty"`
	Failures []interview.LedgerEntry  `json:"failures,omitempty"`
	Metrics  *metrics.Summary         `json:"metrics,omitempty"`
}

// RunStore is the in-memory run registry.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*RunRecord)}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a new pending run. An empty runID gets a generated one.
func (s *RunStore) Create(runID string, input *RunInput) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("run already exists: %s", runID)
	}

	rec := &RunRecord{
		Run: &Run{
			ID:              runID,
			Status:          RunStatusPending,
			SurveyName:      input.Survey.Name,
			CreatedAtUnixMs: nowUnixMs(),
		},
		Input: input,
	}
	s.runs[runID] = rec
	return rec, nil
}

// Get returns the record for a run.
func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	return rec, ok
}

// List returns up to limit records, newest first.
func (s *RunStore) List(limit int) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, utils.MinInt(limit, len(s.runs)))
	for _, rec := range s.runs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Run.CreatedAtUnixMs > out[j].Run.CreatedAtUnixMs
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SetStatus transitions a run and stamps the relevant timestamps.
func (s *RunStore) SetStatus(runID string, status RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	rec.Run.Status = status
	rec.Run.Error = errMsg
	switch status {
	case RunStatusRunning:
		rec.Run.StartedAtUnixMs = nowUnixMs()
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}
	return rec, nil
}

// SetResults attaches the finished interview's results to the record.
func (s *RunStore) SetResults(runID string, answers map[string]models.Answer, outcomes []models.Outcome, failures []interview.LedgerEntry, summary metrics.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	rec.Answers = answers
	rec.Outcomes = outcomes
	rec.Failures = failures
	rec.Metrics = &summary
	return nil
}
