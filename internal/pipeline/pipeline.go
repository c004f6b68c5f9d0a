// Package pipeline runs one complete orchestration pass: stale output
// cleanup, every registered step, the dashboard and Markdown reports,
// post-run cleanup, and the run record, history row and optional upload.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/stevehiehn/theaterdash/internal/artifact"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/engine"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/history"
	"github.com/stevehiehn/theaterdash/internal/publish"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"github.com/stevehiehn/theaterdash/internal/report"
	"github.com/stevehiehn/theaterdash/internal/summary"
	"go.uber.org/zap"
)

// Options tune a run. The zero value runs every registered step through the
// collaborators built from the config.
type Options struct {
	Logger *zap.Logger
	Collab collab.Options
	// Table replaces the collaborator table built from the config.
	Table *collab.Table
	// RunID overrides the generated run ID.
	RunID string
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a run, also written to the run record as
// result.json.
type Result struct {
	RunID       string              `json:"run_id"`
	ExitCode    int                 `json:"exit_code"`
	Summary     summary.RunSummary  `json:"summary"`
	Steps       []engine.StepResult `json:"steps"`
	Dashboard   string              `json:"dashboard"`
	Report      string              `json:"report,omitempty"`
	RenderError string              `json:"render_error,omitempty"`
	Cleared     int                 `json:"cleared"`
	Removed     int                 `json:"removed"`
	Published   []publish.Object    `json:"published,omitempty"`
	Kept        bool                `json:"kept_intermediates"`
	RecordDir   string              `json:"-"`
}

// Run executes the pipeline. The returned error covers only setup failures
// that prevent a run from starting; step failures are reported through
// Result.ExitCode.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	startedAt := now()
	outDir := cfg.OutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	cleared, err := artifact.ClearStale(artifact.Known(cfg), artifact.PreRunPreserve())
	if err != nil {
		log.Warn("stale artifact cleanup incomplete", zap.Error(err))
	}
	log.Debug("cleared stale artifacts", zap.Int("removed", cleared))

	table := opts.Table
	if table == nil {
		table = collab.Build(cfg, opts.Collab)
	}
	rctx := engine.NewRunContext(cfg, table, log)
	if opts.RunID != "" {
		rctx.RunID = opts.RunID
	}
	log = log.With(zap.String("run_id", rctx.RunID))
	log.Info("run started", zap.String("output_dir", outDir))

	results := engine.RunAll(rctx)
	finishedAt := now()

	res := &Result{
		RunID:     rctx.RunID,
		Steps:     results,
		Cleared:   cleared,
		Dashboard: cfg.OutputPath(registry.KeyDashboard),
		Kept:      cfg.Pipeline.KeepIntermediates,
		ExitCode:  exitCode(results),
	}

	sum, err := buildReports(cfg, res, results, startedAt, finishedAt)
	if err != nil {
		res.RenderError = err.Error()
		log.Error("dashboard generation failed", zap.Error(err))
		if ferr := report.WriteFallback(res.Dashboard, err); ferr != nil {
			log.Error("writing fallback dashboard", zap.Error(ferr))
		}
	} else {
		log.Info("dashboard generated", zap.String("path", res.Dashboard))
	}
	res.Summary = sum

	if cfg.Pipeline.KeepIntermediates {
		log.Info("intermediate artifacts kept")
	} else {
		removed, err := artifact.ClearStale(artifact.Known(cfg), artifact.PostRunPreserve(cfg))
		if err != nil {
			log.Warn("post-run cleanup incomplete", zap.Error(err))
		}
		res.Removed = removed
		log.Info("temporary artifacts cleaned", zap.Int("removed", removed))
	}

	if err := writeRecord(cfg, res); err != nil {
		log.Warn("writing run record", zap.Error(err))
	}
	if err := recordHistory(ctx, cfg, res); err != nil && !errors.Is(err, history.ErrDisabled) {
		log.Warn("recording run history", zap.Error(err))
	}
	if cfg.Publish.Enabled() {
		objs, err := publishReports(ctx, cfg, res)
		res.Published = objs
		if err != nil {
			log.Warn("publishing reports", zap.Error(dagerrors.NewPublishError(err)))
		} else {
			log.Info("reports published", zap.Int("objects", len(objs)))
		}
	}

	log.Info("run finished",
		zap.Int("exit_code", res.ExitCode),
		zap.Strings("failed", sum.FailedSteps),
		zap.Strings("skipped", sum.SkippedSteps))
	return res, nil
}

// writeDashboard is swapped in tests to force a render failure.
var writeDashboard = report.WriteDashboard

func exitCode(results []engine.StepResult) int {
	if engine.Failed(results) {
		return 2
	}
	return 0
}

// buildReports builds the summary and writes both reports. A panic in either
// is returned as an error so the caller can fall back.
func buildReports(cfg *config.Config, res *Result, results []engine.StepResult, start, end time.Time) (sum summary.RunSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = dagerrors.NewRenderError(fmt.Errorf("panic: %v", r))
		}
	}()

	sum = summary.Build(res.RunID, results, start, end, cfg.OutputDir())
	if err := writeDashboard(res.Dashboard, report.Collect(cfg, results), sum); err != nil {
		return sum, dagerrors.NewRenderError(err)
	}
	mdPath := cfg.OutputPath(registry.KeyReportMD)
	if err := report.WriteMarkdown(mdPath, sum); err != nil {
		return sum, dagerrors.NewRenderError(err)
	}
	res.Report = mdPath
	return sum, nil
}

func writeRecord(cfg *config.Config, res *Result) error {
	store, err := artifact.New(res.RunID, cfg.WorkDir())
	if err != nil {
		return err
	}
	res.RecordDir = store.BaseDir
	for _, st := range res.Steps {
		if st.Status == engine.StatusSuccess {
			continue
		}
		if err := store.WriteStepLog(st.Name, st.Message); err != nil {
			return err
		}
	}
	return store.WriteResult(res)
}

func recordHistory(ctx context.Context, cfg *config.Config, res *Result) error {
	hs, err := history.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer hs.Close()
	return hs.Record(ctx, res.Summary, res.Dashboard)
}

func publishReports(ctx context.Context, cfg *config.Config, res *Result) ([]publish.Object, error) {
	pub, err := publish.New(cfg.Publish)
	if err != nil {
		return nil, err
	}
	files := []string{res.Dashboard}
	if res.Report != "" {
		files = append(files, res.Report)
	}
	return pub.Publish(ctx, res.RunID, files)
}
