package utils

import (
	"github.com/google/uuid"
)

// GenerateRunID returns a new unique run identifier.
func GenerateRunID() string {
	return "run-" + uuid.NewString()
}

// GenerateInterviewID returns a new unique interview identifier.
func GenerateInterviewID() string {
	return "iv-" + uuid.NewString()
}
