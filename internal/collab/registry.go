// Package collab builds the table of step collaborators: the external
// analysis work each registered step delegates to.
package collab

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stevehiehn/theaterdash/internal/config"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// Capability performs one step's work. It reports failure only through its error.
type Capability func() error

// Entry is one row of the collaborator table. Exactly one of Run or Err is set.
type Entry struct {
	Step     string
	Describe string
	Run      Capability
	Err      error // load failure; the step fails without running
}

// Table maps step name to its collaborator.
type Table struct {
	entries map[string]Entry
}

// Options tune how collaborators are built.
type Options struct {
	// ExtraEnv is appended to every exec collaborator's environment (KEY=VALUE).
	ExtraEnv   []string
	HTTPClient *http.Client
}

// Build resolves a collaborator for every registered step. A step whose
// collaborator cannot be built gets an entry carrying the load error; other
// entries are unaffected.
func Build(cfg *config.Config, opts Options) *Table {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	t := &Table{entries: map[string]Entry{}}
	for _, step := range registry.Steps() {
		t.entries[step.Name] = build(step, cfg, opts)
	}
	return t
}

func build(step registry.Step, cfg *config.Config, opts Options) Entry {
	e := Entry{Step: step.Name}
	collab, ok := cfg.Collaborator(step.Name)
	if !ok {
		e.Err = dagerrors.NewLoadError(step.Name, fmt.Errorf("no collaborator configured"))
		return e
	}
	creds, err := resolveCredentials(step, cfg)
	if err != nil {
		e.Err = err
		return e
	}
	switch collab.Kind {
	case config.KindExec:
		e.Describe, e.Run, e.Err = newExec(step, collab, cfg, creds, opts.ExtraEnv)
	case config.KindHTTP:
		e.Describe, e.Run, e.Err = newDownload(step, collab, cfg, opts.HTTPClient)
	default:
		e.Err = dagerrors.NewLoadError(step.Name, fmt.Errorf("unknown collaborator kind %q", collab.Kind))
	}
	return e
}

// Set installs a Go function as a step's collaborator.
func (t *Table) Set(step string, fn Capability) {
	if t.entries == nil {
		t.entries = map[string]Entry{}
	}
	t.entries[step] = Entry{Step: step, Describe: "func", Run: fn}
}

// SetError records a load failure for a step.
func (t *Table) SetError(step string, err error) {
	if t.entries == nil {
		t.entries = map[string]Entry{}
	}
	t.entries[step] = Entry{Step: step, Err: err}
}

// Get returns the step's capability, or the reason it could not be loaded.
func (t *Table) Get(step string) (Capability, error) {
	e, ok := t.entries[step]
	if !ok {
		return nil, dagerrors.NewLoadError(step, fmt.Errorf("unknown step %q", step))
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Run, nil
}

// Entry returns the table row for a step.
func (t *Table) Entry(step string) (Entry, bool) {
	e, ok := t.entries[step]
	return e, ok
}

// NewTable returns an empty table for callers that register functions directly.
func NewTable() *Table {
	return &Table{entries: map[string]Entry{}}
}
