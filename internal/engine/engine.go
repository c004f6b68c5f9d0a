package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stevehiehn/theaterdash/internal/artifact"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"go.uber.org/zap"
)

// RunAll executes every registered step in order and returns exactly one
// result per step. No step's failure stops the steps after it.
func RunAll(ctx *RunContext) []StepResult {
	steps := ctx.Steps
	if steps == nil {
		steps = registry.Steps()
	}
	if ctx.Logger == nil {
		ctx.Logger = zap.NewNop()
	}
	log := ctx.Logger

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		sr := executeStep(step, ctx)
		sr.Title = step.Title
		results = append(results, sr)

		fields := []zap.Field{
			zap.String("run_id", ctx.RunID),
			zap.String("step", step.Name),
			zap.String("status", sr.Status),
			zap.Duration("duration", sr.Duration),
		}
		if sr.Status == StatusFailed {
			log.Warn("step failed", append(fields, zap.String("message", firstLine(sr.Message)))...)
		} else {
			log.Info("step finished", fields...)
		}
	}
	return results
}

func executeStep(step registry.Step, ctx *RunContext) StepResult {
	cfg := ctx.Config
	if !cfg.Pipeline.Enabled(step.Flag) {
		return StepResult{
			Name:    step.Name,
			Status:  StatusSkipped,
			Message: fmt.Sprintf("config.pipeline.%s=false", step.Flag),
		}
	}

	expected := make([]string, 0, len(step.Artifacts))
	for _, key := range step.Artifacts {
		expected = append(expected, cfg.OutputPath(key))
	}

	fn, err := ctx.Table.Get(step.Name)
	if err != nil {
		return StepResult{
			Name:      step.Name,
			Status:    StatusFailed,
			Message:   loadMessage(err),
			Artifacts: artifact.Existing(expected),
			Error:     loadError(step.Name, err),
		}
	}

	ctx.Logger.Debug("running step", zap.String("step", step.Name), zap.Strings("expected", expected))
	return RunStep(step.Name, fn, expected, cfg.Pipeline.TraceDepth)
}

// loadMessage renders a collaborator load failure; config errors keep their
// own category, everything else is a LoadError.
func loadMessage(err error) string {
	var re *dagerrors.RunError
	if !errors.As(err, &re) {
		return "LoadError: " + err.Error()
	}
	name := "LoadError"
	if dagerrors.Is(err, dagerrors.ConfigError) {
		name = "ConfigError"
	}
	msg := name + ": " + re.Message
	if re.Hint != "" {
		msg += "\n  hint: " + re.Hint
	}
	return msg
}

// loadError keeps a typed load failure as-is and wraps anything else.
func loadError(step string, err error) *dagerrors.RunError {
	var re *dagerrors.RunError
	if errors.As(err, &re) {
		return re
	}
	return dagerrors.NewLoadError(step, err)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
