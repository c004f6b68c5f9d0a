package engine

import (
	"time"

	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
)

// Step statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// StepResult describes the outcome of a single step.
type StepResult struct {
	Name      string        `json:"name"`
	Title     string        `json:"title,omitempty"`
	Status    string        `json:"status"`  // success, failed, skipped
	Message   string        `json:"message"` // full detail, may span lines
	Artifacts []string      `json:"artifacts"`
	Duration  time.Duration `json:"-"`
	DurationS string        `json:"duration,omitempty"`
	// Error is the typed failure behind a failed result; nil otherwise.
	Error *dagerrors.RunError `json:"error,omitempty"`
}

// Failed reports whether any result failed.
func Failed(results []StepResult) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}
