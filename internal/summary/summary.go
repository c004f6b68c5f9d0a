// Package summary condenses step results into the read-only run summary
// shown on the dashboard and stored with each run.
package summary

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/stevehiehn/theaterdash/internal/engine"
)

// TimeLayout formats StartedAt and FinishedAt.
const TimeLayout = "2006-01-02 15:04:05"

// StepSummary is the display form of one step result.
type StepSummary struct {
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Artifacts []string `json:"artifacts"`
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID           string        `json:"run_id"`
	StartedAt       string        `json:"started_at"`
	FinishedAt      string        `json:"finished_at"`
	DurationSeconds float64       `json:"duration_seconds"`
	Steps           []StepSummary `json:"steps"`
	GeneratedFiles  []string      `json:"generated_files"`
	SkippedSteps    []string      `json:"skipped_steps"`
	FailedSteps     []string      `json:"failed_steps"`
}

// Build turns results into a RunSummary. Artifact paths living directly in
// outDir are shown by base name, anything else by full path; generated files
// are deduplicated on that display name, first occurrence wins.
func Build(runID string, results []engine.StepResult, start, end time.Time, outDir string) RunSummary {
	s := RunSummary{
		RunID:           runID,
		StartedAt:       start.Format(TimeLayout),
		FinishedAt:      end.Format(TimeLayout),
		DurationSeconds: math.Round(end.Sub(start).Seconds()*100) / 100,
		Steps:           make([]StepSummary, 0, len(results)),
		GeneratedFiles:  []string{},
		SkippedSteps:    []string{},
		FailedSteps:     []string{},
	}
	outDir = filepath.Clean(outDir)
	seen := map[string]bool{}

	for _, r := range results {
		names := make([]string, 0, len(r.Artifacts))
		for _, a := range r.Artifacts {
			name := DisplayName(a, outDir)
			names = append(names, name)
			if !seen[name] {
				seen[name] = true
				s.GeneratedFiles = append(s.GeneratedFiles, name)
			}
		}

		switch r.Status {
		case engine.StatusSkipped:
			s.SkippedSteps = append(s.SkippedSteps, r.Name)
		case engine.StatusFailed:
			s.FailedSteps = append(s.FailedSteps, r.Name)
		}

		s.Steps = append(s.Steps, StepSummary{
			Name:      r.Name,
			Title:     r.Title,
			Status:    r.Status,
			Message:   firstLine(r.Message),
			Artifacts: names,
		})
	}
	return s
}

// DisplayName returns the base name of path when it sits directly in outDir,
// otherwise the path unchanged.
func DisplayName(path, outDir string) string {
	if filepath.Dir(filepath.Clean(path)) == filepath.Clean(outDir) {
		return filepath.Base(path)
	}
	return path
}

// Failed reports whether any step failed.
func (s RunSummary) Failed() bool { return len(s.FailedSteps) > 0 }

// ExitCode is 2 when any step failed, 0 otherwise. Skipped steps never
// count as failures.
func (s RunSummary) ExitCode() int {
	if s.Failed() {
		return 2
	}
	return 0
}

// Counts returns the number of successful, failed and skipped steps.
func (s RunSummary) Counts() (ok, failed, skipped int) {
	for _, st := range s.Steps {
		switch st.Status {
		case engine.StatusSuccess:
			ok++
		case engine.StatusFailed:
			failed++
		case engine.StatusSkipped:
			skipped++
		}
	}
	return ok, failed, skipped
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimRight(line, "\r")
}
