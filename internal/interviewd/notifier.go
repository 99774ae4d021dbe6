package interviewd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/surveysim/interview-core/internal/metrics"
	"github.com/surveysim/interview-core/pkg/logger"
)

// NotificationPayload is the JSON body posted to a run's callback URL.
type NotificationPayload struct {
	RunID           string           `json:"run_id"`
	Status          RunStatus        `json:"status"`
	SurveyName      string           `json:"survey_name"`
	CreatedAtUnixMs int64            `json:"created_at_unix_ms"`
	StartedAtUnixMs int64            `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64            `json:"ended_at_unix_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
	Metrics         *metrics.Summary `json:"metrics,omitempty"`
	Timestamp       int64            `json:"timestamp"`
}

// Notifier delivers completion callbacks with bounded retries.
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewNotifier creates a notifier with default timeouts.
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
}

// Notify posts the run's final state to callbackURL asynchronously.
func (n *Notifier) Notify(callbackURL, callbackSecret string, rec *RunRecord) {
	if callbackURL == "" {
		return
	}
	payload := &NotificationPayload{
		RunID:           rec.Run.ID,
		Status:          rec.Run.Status,
		SurveyName:      rec.Run.SurveyName,
		CreatedAtUnixMs: rec.Run.CreatedAtUnixMs,
		StartedAtUnixMs: rec.Run.StartedAtUnixMs,
		EndedAtUnixMs:   rec.Run.EndedAtUnixMs,
		Error:           rec.Run.Error,
		Metrics:         rec.Metrics,
		Timestamp:       nowUnixMs(),
	}
	go n.deliver(callbackURL, callbackSecret, payload)
}

func (n *Notifier) deliver(callbackURL, secret string, payload *NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("notification marshal failed", "run_id", payload.RunID, "error", err)
		return
	}

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(n.baseDelay * time.Duration(1<<(attempt-1)))
		}
		if err := n.post(callbackURL, secret, body); err != nil {
			logger.Warn("notification delivery failed",
				"run_id", payload.RunID, "attempt", attempt+1, "error", err)
			continue
		}
		logger.Info("notification delivered", "run_id", payload.RunID, "url", callbackURL)
		return
	}
	logger.Error("notification abandoned", "run_id", payload.RunID, "url", callbackURL)
}

func (n *Notifier) post(url, secret string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Callback-Secret", secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
