package pipeline

import (
	"os"
	"testing"

	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainReportsCollaborators(t *testing.T) {
	t.Setenv("KAKAO_REST_API_KEY", "")
	cfg := config.Default(t.TempDir())
	cfg.Pipeline.SetFlag(registry.FlagText, false)
	cfg.Collaborators = map[string]config.Collaborator{
		"trend_3d": {Kind: config.KindExec, Command: []string{"sh", "-c", "true"}},
	}

	plans := Explain(cfg, collab.Options{})
	require.Len(t, plans, len(registry.Steps()))

	byName := map[string]StepPlan{}
	for _, p := range plans {
		byName[p.Name] = p
	}
	assert.Equal(t, "exec: sh -c true", byName["trend_3d"].Collaborator)
	assert.Empty(t, byName["trend_3d"].LoadError)
	assert.Contains(t, byName["map_spot"].LoadError, "KAKAO_REST_API_KEY")
	assert.False(t, byName["text_keywords"].Enabled)
	assert.Len(t, byName["movie_visualization"].Artifacts, 3)
}

func TestDryRunListsStaleWithoutRemoving(t *testing.T) {
	cfg := config.Default(t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.OutputDir(), 0o755))
	stale := cfg.OutputPath("text_keywords_csv")
	require.NoError(t, os.WriteFile(stale, []byte("k\n"), 0o644))

	p := DryRun(cfg, collab.Options{})
	require.Len(t, p.Stale, 1)
	assert.FileExists(t, stale)
	assert.Equal(t, cfg.OutputPath(registry.KeyDashboard), p.Dashboard)
}

func TestDryRunListsCleanup(t *testing.T) {
	cfg := config.Default(t.TempDir())
	p := DryRun(cfg, collab.Options{})
	assert.Contains(t, p.Cleanup, cfg.OutputPath("plot_3d_trendlines"))
	assert.NotContains(t, p.Cleanup, cfg.OutputPath(registry.KeyDashboard))
	assert.NotContains(t, p.Cleanup, cfg.OutputPath(registry.KeyReportMD))

	cfg.Pipeline.KeepIntermediates = true
	assert.Empty(t, DryRun(cfg, collab.Options{}).Cleanup)
}
