package runner

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
)

// Result holds the output of a collaborator process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Exited   bool  // the process started and exited non-zero
	Err      error // non-nil when the process could not be started or exited non-zero
}

// Run executes argv in workDir with extra environment variables appended to
// the current process environment, and captures output.
func Run(argv []string, workDir string, env []string) *Result {
	if len(argv) == 0 {
		return &Result{ExitCode: 1, Err: errors.New("empty command")}
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	exited := false
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			exited = true
		} else {
			exitCode = 1
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Exited:   exited,
		Err:      err,
	}
}

// LookPath reports whether the command's program can be found.
func LookPath(program string) (string, error) {
	return exec.LookPath(program)
}
