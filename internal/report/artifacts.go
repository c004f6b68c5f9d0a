package report

import (
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/engine"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// Reasons shown on a placeholder card.
const (
	ReasonSkipped     = "skipped"
	ReasonFailed      = "failed"
	ReasonNotProduced = "not produced"
)

// Artifact is one dashboard input: the role, where it should be, and why it
// might be missing.
type Artifact struct {
	Role   registry.ArtifactRole
	Path   string
	Reason string
}

// Artifacts is everything the dashboard embeds, in role order.
type Artifacts struct {
	Items       []Artifact
	PreviewRows int
	// KeepIntermediates records that intermediate files survive the run.
	KeepIntermediates bool
}

// Collect resolves every intermediate role to its configured path and
// derives a missing-file reason from the producer step's status.
func Collect(cfg *config.Config, results []engine.StepResult) Artifacts {
	status := make(map[string]string, len(results))
	for _, r := range results {
		status[r.Name] = r.Status
	}

	arts := Artifacts{PreviewRows: cfg.Pipeline.PreviewRows, KeepIntermediates: cfg.Pipeline.KeepIntermediates}
	for _, role := range registry.Roles() {
		if role.Final() {
			continue
		}
		reason := ReasonNotProduced
		switch status[role.Producer] {
		case engine.StatusSkipped:
			reason = ReasonSkipped
		case engine.StatusFailed:
			reason = ReasonFailed
		}
		arts.Items = append(arts.Items, Artifact{Role: role, Path: cfg.OutputPath(role.Key), Reason: reason})
	}
	return arts
}

// Section returns the items of one dashboard section, in role order.
func (a Artifacts) Section(name string) []Artifact {
	var out []Artifact
	for _, it := range a.Items {
		if it.Role.Section == name {
			out = append(out, it)
		}
	}
	return out
}
