package config

import (
	"fmt"
	"slices"
	"strings"

	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// Validate checks a configuration for structural correctness.
func Validate(c *Config) error {
	for _, flag := range sortedKeys(c.Pipeline.Flags) {
		if !registry.KnownFlag(flag) {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				Message: fmt.Sprintf("unknown pipeline flag %q", flag),
				Hint:    "Known flags: " + strings.Join(registry.Flags(), ", "),
			}
		}
	}
	if c.Pipeline.TraceDepth < 1 {
		return dagerrors.NewValidationError(
			fmt.Sprintf("pipeline.trace_depth must be at least 1, got %d", c.Pipeline.TraceDepth), "")
	}
	if c.Pipeline.PreviewRows < 1 {
		return dagerrors.NewValidationError(
			fmt.Sprintf("pipeline.preview_rows must be at least 1, got %d", c.Pipeline.PreviewRows), "")
	}

	// Outputs: known keys, and no two roles writing the same file.
	for _, key := range sortedKeys(c.Outputs) {
		if _, ok := registry.Role(key); !ok {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				Message: fmt.Sprintf("unknown output key %q", key),
				Hint:    "Run `theaterdash explain` to list artifact keys",
			}
		}
		if strings.TrimSpace(c.Outputs[key]) == "" {
			return dagerrors.NewValidationError(fmt.Sprintf("outputs.%s is empty", key), "")
		}
	}
	owners := map[string]string{}
	for _, r := range registry.Roles() {
		p := c.OutputPath(r.Key)
		if prev, dup := owners[p]; dup {
			return dagerrors.NewValidationError(
				fmt.Sprintf("outputs.%s and outputs.%s resolve to the same file %s", prev, r.Key, p),
				"Each artifact needs its own filename")
		}
		owners[p] = r.Key
	}

	for _, name := range sortedKeys(c.Collaborators) {
		if err := validateCollaborator(name, c.Collaborators[name]); err != nil {
			return err
		}
	}

	switch c.History.Driver {
	case "", "sqlite", "pgx":
	default:
		return dagerrors.NewValidationError(
			fmt.Sprintf("unknown history driver %q", c.History.Driver), "Use sqlite or pgx")
	}
	if c.History.Driver != "" && c.History.DSN == "" {
		return dagerrors.NewValidationError("history.dsn is required", "")
	}

	if c.Publish.Enabled() {
		if strings.Contains(c.Publish.Endpoint, "://") {
			return dagerrors.NewValidationError(
				fmt.Sprintf("publish.endpoint must not include scheme: %q", c.Publish.Endpoint), "Use host:port")
		}
		if strings.TrimSpace(c.Publish.Bucket) == "" {
			return dagerrors.NewValidationError("publish.bucket is required", "")
		}
	}
	return nil
}

func validateCollaborator(name string, collab Collaborator) error {
	step, ok := registry.StepByName(name)
	if !ok {
		return &dagerrors.RunError{
			Type:    dagerrors.ValidationError,
			Message: fmt.Sprintf("collaborator for unknown step %q", name),
		}
	}
	switch collab.Kind {
	case KindExec:
		if len(collab.Command) == 0 || strings.TrimSpace(collab.Command[0]) == "" {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				StepID:  name,
				Message: "exec collaborator requires a command",
			}
		}
	case KindHTTP:
		if collab.URL == "" {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				StepID:  name,
				Message: "http collaborator requires a url",
			}
		}
		if collab.Artifact != "" && !slices.Contains(step.Artifacts, collab.Artifact) {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				StepID:  name,
				Message: fmt.Sprintf("artifact %q is not produced by this step", collab.Artifact),
				Hint:    "Step artifacts: " + strings.Join(step.Artifacts, ", "),
			}
		}
		if collab.Artifact == "" && len(step.Artifacts) != 1 {
			return &dagerrors.RunError{
				Type:    dagerrors.ValidationError,
				StepID:  name,
				Message: "http collaborator must name the artifact it downloads",
				Hint:    "Step artifacts: " + strings.Join(step.Artifacts, ", "),
			}
		}
	default:
		return &dagerrors.RunError{
			Type:    dagerrors.ValidationError,
			StepID:  name,
			Message: fmt.Sprintf("unknown collaborator kind %q", collab.Kind),
			Hint:    "Use exec or http",
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
