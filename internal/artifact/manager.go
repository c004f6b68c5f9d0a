package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// Placeholder is the marker file kept in an otherwise empty output dir.
const Placeholder = ".gitkeep"

// Known lists every path the pipeline can produce, in registry role order.
func Known(cfg *config.Config) []string {
	roles := registry.Roles()
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, cfg.OutputPath(r.Key))
	}
	return out
}

// Intermediates lists the paths produced by steps, excluding final reports.
func Intermediates(cfg *config.Config) []string {
	var out []string
	for _, r := range registry.Roles() {
		if !r.Final() {
			out = append(out, cfg.OutputPath(r.Key))
		}
	}
	return out
}

// PreRunPreserve is the preserve set used before a run.
func PreRunPreserve() map[string]bool {
	return map[string]bool{Placeholder: true}
}

// PostRunPreserve keeps the final reports and the placeholder.
func PostRunPreserve(cfg *config.Config) map[string]bool {
	keep := PreRunPreserve()
	for _, r := range registry.Roles() {
		if r.Final() {
			keep[filepath.Base(cfg.OutputPath(r.Key))] = true
		}
	}
	return keep
}

// ClearStale removes every existing regular file or symlink in paths whose
// base name is not preserved. A symlink is removed itself, never its target.
// Paths that resolve to the same file are removed once. Missing files and
// directories are skipped. Removal errors are collected
// and returned after every path has been tried.
func ClearStale(paths []string, preserve map[string]bool) (int, error) {
	removed := 0
	var errs []error
	for _, p := range Stale(paths, preserve) {
		if err := os.Remove(p); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("removing %s: %w", p, err))
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Stale lists the paths ClearStale would remove, without touching them.
// The resolved path only dedupes aliases; the path returned is the one given.
func Stale(paths []string, preserve map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		key := resolve(p)
		if seen[key] {
			continue
		}
		seen[key] = true

		if preserve[filepath.Base(p)] {
			continue
		}
		info, err := os.Lstat(p)
		if err != nil {
			continue
		}
		if mode := info.Mode(); !mode.IsRegular() && mode&os.ModeSymlink == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Existing returns the subset of paths that are regular files, in order.
func Existing(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
