package collab

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/stevehiehn/theaterdash/internal/config"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"github.com/stevehiehn/theaterdash/internal/runner"
	"github.com/stevehiehn/theaterdash/internal/template"
)

// Variables exported to every exec collaborator.
const (
	EnvOutputDir = "THEATERDASH_OUTPUT_DIR"
	EnvConfig    = "THEATERDASH_CONFIG"
)

// CommandError reports a collaborator process that exited non-zero.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Trace returns the non-empty stderr lines, typically the collaborator's own traceback.
func (e *CommandError) Trace() []string {
	var out []string
	for _, l := range strings.Split(e.Stderr, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, strings.TrimRight(l, " \r"))
		}
	}
	return out
}

func newExec(step registry.Step, collab config.Collaborator, cfg *config.Config, creds map[string]string, extra []string) (string, Capability, error) {
	env := map[string]string{}
	for k, v := range creds {
		env[k] = v
	}
	for k, v := range collab.Env {
		env[k] = v
	}
	tctx := templateContext(cfg, env)

	argv, err := template.ResolveAll(collab.Command, tctx)
	if err != nil {
		return "", nil, dagerrors.NewLoadError(step.Name, err)
	}
	if len(argv) == 0 {
		return "", nil, dagerrors.NewLoadError(step.Name, fmt.Errorf("empty command"))
	}
	workDir := cfg.WorkDir()
	if err := checkProgram(argv[0], workDir); err != nil {
		return "", nil, dagerrors.NewLoadError(step.Name, err)
	}
	// The script named in argv[1] must exist when it is a relative source file.
	if len(argv) > 1 && isScript(argv[1]) {
		script := argv[1]
		if !filepath.IsAbs(script) {
			script = filepath.Join(workDir, script)
		}
		if _, err := os.Stat(script); err != nil {
			return "", nil, dagerrors.NewLoadError(step.Name, fmt.Errorf("collaborator script: %w", err))
		}
	}

	procEnv := []string{EnvOutputDir + "=" + cfg.OutputDir()}
	if cfg.Path != "" {
		procEnv = append(procEnv, EnvConfig+"="+cfg.Path)
	}
	for _, k := range sortedKeys(env) {
		procEnv = append(procEnv, k+"="+env[k])
	}
	procEnv = append(procEnv, extra...)

	run := func() error {
		if err := os.MkdirAll(cfg.OutputDir(), 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		res := runner.Run(argv, workDir, procEnv)
		if res.Err == nil {
			return nil
		}
		if res.Exited {
			return &CommandError{Argv: argv, ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
		return res.Err
	}
	return "exec: " + strings.Join(argv, " "), run, nil
}

func checkProgram(program, workDir string) error {
	if strings.ContainsRune(program, filepath.Separator) {
		p := program
		if !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("collaborator program: %w", err)
		}
		return nil
	}
	_, err := runner.LookPath(program)
	return err
}

func isScript(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".py", ".r", ".sh", ".js":
		return true
	}
	return false
}

func templateContext(cfg *config.Config, env map[string]string) *template.Context {
	outputs := map[string]string{}
	for _, r := range registry.Roles() {
		outputs[r.Key] = cfg.OutputPath(r.Key)
	}
	return &template.Context{
		Outputs: outputs,
		Paths: map[string]string{
			"output_dir": cfg.OutputDir(),
			"work_dir":   cfg.WorkDir(),
		},
		Env: env,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
