package config

import (
	"strings"
	"testing"
)

func TestParseConfigYAMLDefaults(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte("log_level: debug\n"))
	if err != nil {
		t.Fatalf("expected config to parse, got %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %s", cfg.LogLevel)
	}
	if cfg.Retry.MaxAttempts != 4 {
		t.Fatalf("expected default max_attempts 4, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Answerer.TimeoutMs != 30000 {
		t.Fatalf("expected default timeout 30000, got %d", cfg.Answerer.TimeoutMs)
	}
}

func TestParseConfigYAMLFull(t *testing.T) {
	doc := `
log_level: warn
listen_addr: ":9000"
answerer:
  endpoint: "http://localhost:9090/v1/answer"
  identity: "openai:gpt"
  timeout_ms: 5000
retry:
  start_delay_ms: 100
  max_delay_ms: 2000
  multiplier: 1.5
  max_attempts: 3
rate_limits:
  - identity: "openai:gpt"
    requests: {capacity: 60, refill_per_sec: 1.0}
    tokens: {capacity: 90000, refill_per_sec: 1500.0}
stop_on_first_exception: true
`
	cfg, err := ParseConfigYAML([]byte(doc))
	if err != nil {
		t.Fatalf("expected config to parse, got %v", err)
	}
	if !cfg.StopOnFirstException {
		t.Fatalf("expected stop_on_first_exception true")
	}
	if len(cfg.RateLimits) != 1 || cfg.RateLimits[0].Tokens.Capacity != 90000 {
		t.Fatalf("unexpected rate limits: %+v", cfg.RateLimits)
	}
	if cfg.Retry.Multiplier != 1.5 {
		t.Fatalf("expected multiplier 1.5, got %g", cfg.Retry.Multiplier)
	}
}

func TestParseConfigYAMLRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad log level", "log_level: loud\n", "log_level"},
		{"zero attempts", "retry: {max_attempts: 0}\n", "max_attempts"},
		{"multiplier below one", "retry: {multiplier: 0.5}\n", "multiplier"},
		{"max below start", "retry: {start_delay_ms: 500, max_delay_ms: 100}\n", "max_delay_ms"},
		{"empty identity", "rate_limits: [{requests: {capacity: 1, refill_per_sec: 1}, tokens: {capacity: 1, refill_per_sec: 1}}]\n", "identity"},
		{"bad capacity", "rate_limits: [{identity: a, requests: {capacity: 0, refill_per_sec: 1}, tokens: {capacity: 1, refill_per_sec: 1}}]\n", "capacity"},
		{"duplicate identity", "rate_limits: [{identity: a, unlimited: true}, {identity: a, unlimited: true}]\n", "duplicate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfigYAML([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseSurveyYAML(t *testing.T) {
	doc := `
name: onboarding
questions:
  - name: q1
    text: "Do you like surveys?"
    type: multiple_choice
    options: ["yes", "no"]
  - name: q2
    text: "Why?"
    type: free_text
    memory: [q1]
skip_rules:
  - when: {question: q1, equals: "no"}
    skip: [q2]
`
	survey, err := ParseSurveyYAML([]byte(doc))
	if err != nil {
		t.Fatalf("expected survey to parse, got %v", err)
	}
	if survey.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", survey.Len())
	}
	if survey.Questions[1].Memory[0] != "q1" {
		t.Fatalf("expected q2 memory [q1], got %v", survey.Questions[1].Memory)
	}
	if survey.SkipRules[0].When.Equals != "no" {
		t.Fatalf("unexpected skip rule: %+v", survey.SkipRules[0])
	}
}

func TestValidateSurveyRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no questions", "name: empty\n", "no questions"},
		{"duplicate names", "questions: [{name: a}, {name: a}]\n", "duplicate"},
		{"unknown memory", "questions: [{name: a, memory: [ghost]}]\n", "unknown question"},
		{"rule without subject", "questions: [{name: a}]\nskip_rules: [{when: {}, skip: [a]}]\n", "condition subject"},
		{"rule skips nothing", "questions: [{name: a}]\nskip_rules: [{when: {question: a, equals: x}}]\n", "skips nothing"},
		{"rule unknown target", "questions: [{name: a}]\nskip_rules: [{when: {question: a, equals: x}, skip: [ghost]}]\n", "unknown question"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSurveyYAML([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
