package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/stevehiehn/theaterdash/internal/artifact"
	"github.com/stevehiehn/theaterdash/internal/collab"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
)

// DefaultTraceDepth bounds the trace kept in a failed step's message.
const DefaultTraceDepth = 5

// tracer is implemented by errors that carry their own trace lines, such as
// a collaborator's stderr.
type tracer interface {
	Trace() []string
}

// RunStep invokes fn once and classifies the outcome. Errors and panics from
// fn never escape; every path yields a StepResult.
func RunStep(name string, fn collab.Capability, expected []string, traceDepth int) StepResult {
	if traceDepth < 1 {
		traceDepth = DefaultTraceDepth
	}
	sr := StepResult{Name: name, Status: StatusFailed}
	if strings.TrimSpace(name) == "" {
		sr.Error = dagerrors.NewValidationError("step name is required", "")
		sr.Message = "ValidationError: " + sr.Error.Message
		return sr
	}
	if fn == nil {
		sr.Error = dagerrors.NewLoadError(name, errors.New("no collaborator"))
		sr.Message = "LoadError: " + sr.Error.Message
		return sr
	}

	start := time.Now()
	err, trace := invoke(fn, traceDepth)
	sr.Duration = time.Since(start)
	sr.DurationS = sr.Duration.Round(time.Millisecond).String()

	sr.Artifacts = artifact.Existing(expected)
	var missing []string
	for _, p := range expected {
		if !slices.Contains(sr.Artifacts, p) {
			missing = append(missing, filepath.Base(p))
		}
	}

	switch {
	case err != nil:
		sr.Error = dagerrors.NewStepError(name, err)
		sr.Message = fmt.Sprintf("%s: %s", typeName(err), err.Error())
		if len(trace) > 0 {
			sr.Message += "\n" + strings.Join(trace, "\n")
		}
	case len(missing) > 0:
		sr.Error = dagerrors.NewArtifactMissing(name, missing)
		sr.Message = "completed but " + sr.Error.Message
	default:
		sr.Status = StatusSuccess
		sr.Message = "OK"
	}
	return sr
}

// invoke calls fn, turning a panic into an error with a bounded stack.
func invoke(fn collab.Capability, depth int) (err error, trace []string) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
			trace = callers(depth)
		}
	}()
	if err = fn(); err != nil {
		trace = errorTrace(err, depth)
	}
	return err, trace
}

// PanicError wraps a value recovered from a panicking collaborator.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// errorTrace lists the tail of a collaborator's own trace, or the chain of
// wrapped causes, at most depth lines.
func errorTrace(err error, depth int) []string {
	if t, ok := err.(tracer); ok {
		lines := t.Trace()
		if len(lines) > depth {
			lines = lines[len(lines)-depth:]
		}
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = "  " + l
		}
		return out
	}
	var out []string
	for cause := unwrap(err); cause != nil && len(out) < depth; cause = unwrap(cause) {
		out = append(out, fmt.Sprintf("  caused by %s: %s", typeName(cause), cause.Error()))
	}
	return out
}

func callers(depth int) []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var out []string
	for len(out) < depth {
		f, more := frames.Next()
		out = append(out, fmt.Sprintf("  at %s (%s:%d)", f.Function, filepath.Base(f.File), f.Line))
		if !more {
			break
		}
	}
	return out
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

// typeName names the most specific error type in err's chain: the innermost
// cause of a RunError, the dynamic type of a recovered panic value, or err
// itself.
func typeName(err error) string {
	for {
		if re, ok := err.(*dagerrors.RunError); ok && re.Cause != nil {
			err = re.Cause
			continue
		}
		break
	}
	if pe, ok := err.(*PanicError); ok && pe.Value != nil {
		if inner, ok := pe.Value.(error); ok {
			return typeName(inner)
		}
		return reflect.TypeOf(pe.Value).String()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	switch {
	case name == "errorString" || name == "wrapError" || name == "":
		return "Error"
	case name == "RunError":
		if re, ok := err.(*dagerrors.RunError); ok {
			return runErrorName(re.Type)
		}
	}
	return name
}

// runErrorName turns CONFIG_ERROR into ConfigError.
func runErrorName(typ string) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.ToLower(typ), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}
