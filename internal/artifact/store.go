package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store keeps the diagnostic record of one run: the summary and each step's
// full message, including traces that the dashboard cuts to one line.
type Store struct {
	RunID   string
	BaseDir string // <workDir>/.theaterdash/runs/<run_id>
}

// RunsDir returns the directory holding every run record under workDir.
func RunsDir(workDir string) string {
	return filepath.Join(workDir, ".theaterdash", "runs")
}

// New creates a store for a given run ID, rooted at workDir.
func New(runID, workDir string) (*Store, error) {
	base := filepath.Join(RunsDir(workDir), runID)
	if err := os.MkdirAll(filepath.Join(base, "steps"), 0o755); err != nil {
		return nil, fmt.Errorf("creating run record dir: %w", err)
	}
	return &Store{RunID: runID, BaseDir: base}, nil
}

// WriteStepLog writes a step's full message.
func (s *Store) WriteStepLog(step, message string) error {
	if message == "" {
		return nil
	}
	return os.WriteFile(filepath.Join(s.BaseDir, "steps", step+".log"), []byte(message+"\n"), 0o644)
}

// WriteResult writes the final result JSON.
func (s *Store) WriteResult(result any) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.BaseDir, "result.json"), data, 0o644)
}

// ReadResult decodes a stored run's result.json into v.
func ReadResult(workDir, runID string, v any) error {
	data, err := os.ReadFile(filepath.Join(RunsDir(workDir), runID, "result.json"))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
