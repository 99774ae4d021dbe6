package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/surveysim/interview-core/pkg/models"
)

// ParseConfigYAML parses and validates a configuration document. Omitted
// fields take the defaults from Default().
func ParseConfigYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config YAML: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseSurveyYAML parses and validates a survey definition.
func ParseSurveyYAML(data []byte) (*models.Survey, error) {
	var survey models.Survey
	if err := yaml.Unmarshal(data, &survey); err != nil {
		return nil, fmt.Errorf("invalid survey YAML: %w", err)
	}
	if err := ValidateSurvey(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

// ParseFieldsYAML parses a flat string-map document (persona, scenario).
func ParseFieldsYAML(data []byte) (map[string]string, error) {
	fields := make(map[string]string)
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid fields YAML: %w", err)
	}
	return fields, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.StartDelayMs < 0 {
		return fmt.Errorf("retry.start_delay_ms cannot be negative")
	}
	if cfg.Retry.MaxDelayMs < cfg.Retry.StartDelayMs {
		return fmt.Errorf("retry.max_delay_ms (%d) cannot be below start_delay_ms (%d)",
			cfg.Retry.MaxDelayMs, cfg.Retry.StartDelayMs)
	}
	if cfg.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1, got %g", cfg.Retry.Multiplier)
	}
	if cfg.Answerer.TimeoutMs <= 0 {
		return fmt.Errorf("answerer.timeout_ms must be positive")
	}

	identities := make(map[string]bool)
	for _, rl := range cfg.RateLimits {
		if rl.Identity == "" {
			return fmt.Errorf("rate_limits: identity cannot be empty")
		}
		if identities[rl.Identity] {
			return fmt.Errorf("rate_limits: duplicate identity %q", rl.Identity)
		}
		identities[rl.Identity] = true
		if rl.Unlimited {
			continue
		}
		if err := validateBucket(rl.Identity, "requests", rl.Requests); err != nil {
			return err
		}
		if err := validateBucket(rl.Identity, "tokens", rl.Tokens); err != nil {
			return err
		}
	}
	return nil
}

func validateBucket(identity, name string, b Bucket) error {
	if b.Capacity <= 0 {
		return fmt.Errorf("rate_limits %s: %s.capacity must be positive", identity, name)
	}
	if b.RefillPerSec <= 0 {
		return fmt.Errorf("rate_limits %s: %s.refill_per_sec must be positive", identity, name)
	}
	return nil
}

// ValidateSurvey checks structural integrity of a survey definition:
// non-empty, unique question names, and rule references that resolve.
func ValidateSurvey(survey *models.Survey) error {
	if len(survey.Questions) == 0 {
		return fmt.Errorf("survey %q has no questions", survey.Name)
	}

	names := make(map[string]bool, len(survey.Questions))
	for _, q := range survey.Questions {
		if q.Name == "" {
			return fmt.Errorf("survey %q: question name cannot be empty", survey.Name)
		}
		if names[q.Name] {
			return fmt.Errorf("survey %q: duplicate question name %q", survey.Name, q.Name)
		}
		names[q.Name] = true
	}

	for _, q := range survey.Questions {
		for _, m := range q.Memory {
			if !names[m] {
				return fmt.Errorf("survey %q: question %q remembers unknown question %q",
					survey.Name, q.Name, m)
			}
		}
	}

	for i, rule := range survey.SkipRules {
		if rule.When.Question == "" && rule.When.Field == "" {
			return fmt.Errorf("survey %q: skip rule %d has no condition subject", survey.Name, i)
		}
		if rule.When.Question != "" && !names[rule.When.Question] {
			return fmt.Errorf("survey %q: skip rule %d references unknown question %q",
				survey.Name, i, rule.When.Question)
		}
		if len(rule.Skip) == 0 {
			return fmt.Errorf("survey %q: skip rule %d skips nothing", survey.Name, i)
		}
		for _, target := range rule.Skip {
			if !names[target] {
				return fmt.Errorf("survey %q: skip rule %d targets unknown question %q",
					survey.Name, i, target)
			}
		}
	}
	return nil
}
