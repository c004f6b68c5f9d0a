package pipeline

import (
	"github.com/stevehiehn/theaterdash/internal/artifact"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// StepPlan describes what a run would do with one step.
type StepPlan struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Flag         string   `json:"flag"`
	Enabled      bool     `json:"enabled"`
	Collaborator string   `json:"collaborator,omitempty"`
	LoadError    string   `json:"load_error,omitempty"`
	Artifacts    []string `json:"artifacts"`
}

// Preview is a dry run: the step plan, the stale files a run would clear
// first, and the intermediates it would remove after rendering.
type Preview struct {
	OutputDir string     `json:"output_dir"`
	Steps     []StepPlan `json:"steps"`
	Stale     []string   `json:"stale"`
	Cleanup   []string   `json:"cleanup"`
	Dashboard string     `json:"dashboard"`
}

// Explain resolves every step's collaborator without running anything.
func Explain(cfg *config.Config, opts collab.Options) []StepPlan {
	table := collab.Build(cfg, opts)
	var out []StepPlan
	for _, s := range registry.Steps() {
		sp := StepPlan{
			Name:    s.Name,
			Title:   s.Title,
			Flag:    s.Flag,
			Enabled: cfg.Pipeline.Enabled(s.Flag),
		}
		for _, key := range s.Artifacts {
			sp.Artifacts = append(sp.Artifacts, cfg.OutputPath(key))
		}
		if e, ok := table.Entry(s.Name); ok {
			sp.Collaborator = e.Describe
			if e.Err != nil {
				sp.LoadError = e.Err.Error()
			}
		}
		out = append(out, sp)
	}
	return out
}

// DryRun reports what Run would do.
func DryRun(cfg *config.Config, opts collab.Options) Preview {
	p := Preview{
		OutputDir: cfg.OutputDir(),
		Steps:     Explain(cfg, opts),
		Stale:     artifact.Stale(artifact.Known(cfg), artifact.PreRunPreserve()),
		Cleanup:   []string{},
		Dashboard: cfg.OutputPath(registry.KeyDashboard),
	}
	if !cfg.Pipeline.KeepIntermediates {
		p.Cleanup = artifact.Intermediates(cfg)
	}
	return p
}
