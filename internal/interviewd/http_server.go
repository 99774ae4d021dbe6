package interviewd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/logger"
)

// HTTPServer exposes the run lifecycle over HTTP/JSON.
type HTTPServer struct {
	store    *RunStore
	executor *RunExecutor
	server   *http.Server
}

// NewHTTPServer wires the REST surface over a store and executor.
func NewHTTPServer(addr string, store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{store: store, executor: executor}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/runs", s.handleCreateRun)
	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /v1/runs/{id}/start", s.handleStartRun)
	mux.HandleFunc("POST /v1/runs/{id}/stop", s.handleStopRun)
	mux.HandleFunc("GET /v1/runs/{id}/outcomes", s.handleRunOutcomes)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *HTTPServer) ListenAndServe() error {
	logger.Info("http server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRunRequest struct {
	RunID string    `json:"run_id,omitempty"`
	Input *RunInput `json:"input"`
}

func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Input == nil || req.Input.Survey == nil {
		writeError(w, http.StatusBadRequest, "input.survey is required")
		return
	}
	if err := config.ValidateSurvey(req.Input.Survey); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Create(req.RunID, req.Input)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	logger.Info("run created", "run_id", rec.Run.ID, "survey", rec.Run.SurveyName)
	writeJSON(w, http.StatusCreated, rec.Run)
}

func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	recs := s.store.List(0)
	runs := make([]*Run, len(recs))
	for i, rec := range recs {
		runs[i] = rec.Run
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *HTTPServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.executor.Start(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRunTerminal):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	logger.Info("run started", "run_id", rec.Run.ID)
	writeJSON(w, http.StatusOK, rec.Run)
}

func (s *HTTPServer) handleStopRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.executor.Stop(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrRunIDMissing) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusNotFound, err.Error())
		}
		return
	}
	logger.Info("run cancelled", "run_id", rec.Run.ID)
	writeJSON(w, http.StatusOK, rec.Run)
}

func (s *HTTPServer) handleRunOutcomes(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   rec.Run.ID,
		"status":   rec.Run.Status,
		"answers":  rec.Answers,
		"outcomes": rec.Outcomes,
		"failures": rec.Failures,
		"metrics":  rec.Metrics,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
