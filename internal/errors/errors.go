package errors

import (
	"fmt"
	"strings"
)

// Error type constants
const (
	ValidationError = "VALIDATION_ERROR"
	ConfigError     = "CONFIG_ERROR"
	LoadError       = "LOAD_ERROR"
	StepFailed      = "STEP_FAILED"
	ArtifactMissing = "ARTIFACT_MISSING"
	RenderFailed    = "RENDER_FAILED"
	PublishFailed   = "PUBLISH_FAILED"
)

// RunError is a structured error for a pipeline run.
type RunError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	StepID    string `json:"step_id,omitempty"`
	Retryable bool   `json:"retryable"`
	Hint      string `json:"hint,omitempty"`
	Cause     error  `json:"-"`
}

func (e *RunError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Type, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *RunError) Unwrap() error { return e.Cause }

func NewValidationError(msg, hint string) *RunError {
	return &RunError{Type: ValidationError, Message: msg, Hint: hint}
}

// NewConfigError reports a missing or unusable setting a step depends on.
func NewConfigError(stepID, msg, hint string) *RunError {
	return &RunError{Type: ConfigError, StepID: stepID, Message: msg, Hint: hint}
}

// NewLoadError wraps the reason a step's collaborator could not be built.
func NewLoadError(stepID string, cause error) *RunError {
	return &RunError{Type: LoadError, StepID: stepID, Message: cause.Error(), Cause: cause}
}

// NewStepError wraps an error or panic raised by a step's collaborator.
func NewStepError(stepID string, cause error) *RunError {
	return &RunError{Type: StepFailed, StepID: stepID, Message: cause.Error(), Cause: cause}
}

// NewArtifactMissing reports a step that completed without writing every
// expected artifact.
func NewArtifactMissing(stepID string, missing []string) *RunError {
	return &RunError{
		Type:    ArtifactMissing,
		StepID:  stepID,
		Message: "expected artifacts are missing: " + strings.Join(missing, ", "),
		Hint:    "Check that the collaborator writes to the paths in `theaterdash explain`",
	}
}

// NewRenderError wraps a dashboard or report rendering failure.
func NewRenderError(cause error) *RunError {
	return &RunError{Type: RenderFailed, Message: cause.Error(), Cause: cause}
}

// NewPublishError wraps an upload failure. Uploads can be retried.
func NewPublishError(cause error) *RunError {
	return &RunError{Type: PublishFailed, Message: cause.Error(), Cause: cause, Retryable: true}
}

// Is reports whether err is a *RunError of the given type.
func Is(err error, typ string) bool {
	for err != nil {
		if re, ok := err.(*RunError); ok && re.Type == typ {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
