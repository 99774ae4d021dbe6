package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/surveysim/interview-core/internal/cache"
	"github.com/surveysim/interview-core/pkg/models"
)

// Cached wraps an Answerer with the opaque response cache. Only valid
// results are cached; failures always go back to the service.
type Cached struct {
	inner  Answerer
	store  *cache.Store
	logger *slog.Logger
}

// NewCached creates a caching wrapper around inner.
func NewCached(inner Answerer, store *cache.Store, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, store: store, logger: logger}
}

// Answer serves from the cache when possible, otherwise delegates and
// stores the result. Cache errors degrade to a direct call.
func (c *Cached) Answer(ctx context.Context, q models.Question, ic models.InterviewContext) (models.Result, error) {
	key := cacheKey(q, ic)

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("answer cache read failed", "question", q.Name, "error", err)
	} else if ok {
		var result models.Result
		if err := json.Unmarshal(data, &result); err == nil {
			c.logger.Debug("answer cache hit", "question", q.Name)
			return result, nil
		}
	}

	result, err := c.inner.Answer(ctx, q, ic)
	if err != nil {
		return result, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.store.Put(ctx, key, data); err != nil {
			c.logger.Warn("answer cache write failed", "question", q.Name, "error", err)
		}
	}
	return result, nil
}

// FailedResult implements Answerer.
func (c *Cached) FailedResult(reason string) models.Result {
	return c.inner.FailedResult(reason)
}

// cacheKey digests the question and the context fields that influence the
// generated answer: remembered answers, persona, scenario, iteration.
func cacheKey(q models.Question, ic models.InterviewContext) string {
	memory := make(map[string]string, len(q.Memory))
	for _, name := range q.Memory {
		if a, ok := ic.Answers[name]; ok {
			memory[name] = a.Value
		}
	}
	payload, _ := json.Marshal(struct {
		Survey    string            `json:"survey"`
		Iteration int               `json:"iteration"`
		Question  models.Question   `json:"question"`
		Memory    map[string]string `json:"memory"`
		Persona   models.Persona    `json:"persona"`
		Scenario  models.Scenario   `json:"scenario"`
	}{ic.SurveyName, ic.Iteration, q, memory, ic.Persona, ic.Scenario})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
