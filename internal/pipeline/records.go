package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/stevehiehn/theaterdash/internal/artifact"
	"github.com/stevehiehn/theaterdash/internal/config"
)

// ErrNoRuns is returned by LastRun when no run record exists.
var ErrNoRuns = errors.New("no recorded runs")

// LastRun loads the most recently written run record under the work dir.
func LastRun(cfg *config.Config) (*Result, error) {
	dir := artifact.RunsDir(cfg.WorkDir())
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, err
	}

	var latest string
	var latestMod time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name(), "result.json"))
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest, latestMod = e.Name(), info.ModTime()
		}
	}
	if latest == "" {
		return nil, ErrNoRuns
	}

	var res Result
	if err := artifact.ReadResult(cfg.WorkDir(), latest, &res); err != nil {
		return nil, err
	}
	res.RecordDir = filepath.Join(dir, latest)
	return &res, nil
}
