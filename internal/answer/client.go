package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/surveysim/interview-core/pkg/models"
)

// Client calls a hosted answer-generation service over HTTP/JSON.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates an HTTP answerer client with the given call timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// answerRequest is the wire payload posted per question.
type answerRequest struct {
	Question models.Question         `json:"question"`
	Context  models.InterviewContext `json:"context"`
}

// Answer posts the question and interview context, mapping transport
// failures and 5xx statuses to the transient ErrNoResponse and invalid
// payloads to ValidationError.
func (c *Client) Answer(ctx context.Context, q models.Question, ic models.InterviewContext) (models.Result, error) {
	body, err := json.Marshal(answerRequest{Question: q, Context: ic})
	if err != nil {
		return models.Result{}, fmt.Errorf("marshal answer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Result{}, fmt.Errorf("build answer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return models.Result{}, fmt.Errorf("%w: status %d", ErrNoResponse, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Result{}, fmt.Errorf("answerer returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Result{}, fmt.Errorf("%w: read body: %v", ErrNoResponse, err)
	}

	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return models.Result{}, &ValidationError{Reason: fmt.Sprintf("undecodable answer payload: %v", err)}
	}
	if !result.Valid {
		reason := result.FailureReason
		if reason == "" {
			reason = "answer marked invalid by service"
		}
		return result, &ValidationError{Reason: reason}
	}
	return result, nil
}

// FailedResult implements Answerer.
func (c *Client) FailedResult(reason string) models.Result {
	return models.Result{Valid: false, FailureReason: reason}
}
