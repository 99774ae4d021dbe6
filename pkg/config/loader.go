package config

import (
	"fmt"
	"os"

	"github.com/surveysim/interview-core/pkg/models"
)

// LoadConfig loads and parses a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadSurvey loads and parses a survey definition file.
func LoadSurvey(path string) (*models.Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file %s: %w", path, err)
	}
	survey, err := ParseSurveyYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse survey file %s: %w", path, err)
	}
	return survey, nil
}

// LoadFields loads a flat key/value file (persona or scenario).
// A missing path yields an empty map.
func LoadFields(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file %s: %w", path, err)
	}
	fields, err := ParseFieldsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fields file %s: %w", path, err)
	}
	return fields, nil
}
