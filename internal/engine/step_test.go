package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
)

type geocodeError struct{ addr string }

func (e *geocodeError) Error() string { return "no coordinates for " + e.addr }

type stderrError struct{ lines []string }

func (e *stderrError) Error() string   { return "exited with code 1" }
func (e *stderrError) Trace() []string { return e.lines }

func TestRunStepSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "c.png")
	sr := RunStep("c", func() error { return os.WriteFile(out, []byte("x"), 0o644) }, []string{out}, 5)
	if sr.Status != StatusSuccess {
		t.Fatalf("expected success, got %q: %s", sr.Status, sr.Message)
	}
	if len(sr.Artifacts) != 1 || sr.Artifacts[0] != out {
		t.Errorf("unexpected artifacts %v", sr.Artifacts)
	}
}

func TestRunStepNoExpectedArtifacts(t *testing.T) {
	sr := RunStep("noop", func() error { return nil }, nil, 5)
	if sr.Status != StatusSuccess {
		t.Errorf("expected success, got %q", sr.Status)
	}
}

func TestRunStepErrorIncludesTypeName(t *testing.T) {
	sr := RunStep("a", func() error { return &geocodeError{addr: "Seoul"} }, nil, 5)
	if sr.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", sr.Status)
	}
	if !strings.HasPrefix(sr.Message, "geocodeError: no coordinates for Seoul") {
		t.Errorf("unexpected message %q", sr.Message)
	}
}

func TestRunStepWrappedErrorListsCauses(t *testing.T) {
	inner := &geocodeError{addr: "Busan"}
	sr := RunStep("a", func() error { return fmt.Errorf("loading theaters: %w", inner) }, nil, 5)
	lines := strings.Split(sr.Message, "\n")
	if lines[0] != "Error: loading theaters: no coordinates for Busan" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if len(lines) != 2 || !strings.Contains(lines[1], "caused by geocodeError") {
		t.Errorf("expected cause line, got %q", sr.Message)
	}
}

func TestRunStepRunErrorUsesCauseType(t *testing.T) {
	err := &dagerrors.RunError{Type: dagerrors.StepFailed, Message: "x", Cause: &geocodeError{addr: "Incheon"}}
	sr := RunStep("a", func() error { return err }, nil, 5)
	if !strings.HasPrefix(sr.Message, "geocodeError: ") {
		t.Errorf("unexpected message %q", sr.Message)
	}
	plain := dagerrors.NewConfigError("a", "missing key", "")
	sr = RunStep("a", func() error { return plain }, nil, 5)
	if !strings.HasPrefix(sr.Message, "ConfigError: ") {
		t.Errorf("unexpected message %q", sr.Message)
	}
}

func TestRunStepTraceIsBounded(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("frame %d", i))
	}
	sr := RunStep("a", func() error { return &stderrError{lines: lines} }, nil, 3)
	got := strings.Split(sr.Message, "\n")
	if len(got) != 4 {
		t.Fatalf("expected header plus 3 trace lines, got %d: %q", len(got), sr.Message)
	}
	if strings.TrimSpace(got[3]) != "frame 11" {
		t.Errorf("expected last frame kept, got %q", got[3])
	}
}

func TestRunStepPanicIsCaught(t *testing.T) {
	sr := RunStep("a", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	}, nil, 5)
	if sr.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", sr.Status)
	}
	// A runtime fault is named by its runtime error type, not the wrapper.
	if strings.HasPrefix(sr.Message, "PanicError") || !strings.Contains(sr.Message, ": panic: assignment to entry in nil map") {
		t.Errorf("unexpected message %q", sr.Message)
	}
	if n := len(strings.Split(sr.Message, "\n")); n > 6 {
		t.Errorf("expected at most 5 trace lines, got %d", n-1)
	}
	if sr.Error == nil || sr.Error.Type != dagerrors.StepFailed {
		t.Errorf("expected STEP_FAILED error, got %+v", sr.Error)
	}
}

func TestRunStepPanicNamesValueType(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{"boom", "string: panic: boom"},
		{42, "int: panic: 42"},
		{&geocodeError{addr: "Daegu"}, "geocodeError: panic: no coordinates for Daegu"},
	}
	for _, tc := range cases {
		sr := RunStep("a", func() error { panic(tc.value) }, nil, 5)
		if first := strings.Split(sr.Message, "\n")[0]; first != tc.want {
			t.Errorf("panic(%v): expected %q, got %q", tc.value, tc.want, first)
		}
	}
}

func TestRunStepMissingArtifactFails(t *testing.T) {
	dir := t.TempDir()
	made := filepath.Join(dir, "movie_releases_by_year.png")
	missing := filepath.Join(dir, "movie_sales_by_year.png")
	sr := RunStep("movies", func() error { return os.WriteFile(made, []byte("x"), 0o644) }, []string{made, missing}, 5)
	if sr.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", sr.Status)
	}
	if sr.Message != "completed but expected artifacts are missing: movie_sales_by_year.png" {
		t.Errorf("unexpected message %q", sr.Message)
	}
	if sr.Error == nil || sr.Error.Type != dagerrors.ArtifactMissing || sr.Error.StepID != "movies" {
		t.Errorf("expected ARTIFACT_MISSING error, got %+v", sr.Error)
	}
	if len(sr.Artifacts) != 1 || sr.Artifacts[0] != made {
		t.Errorf("expected produced artifact recorded, got %v", sr.Artifacts)
	}
}

func TestRunStepDirectoryIsNotAnArtifact(t *testing.T) {
	dir := t.TempDir()
	sr := RunStep("a", func() error { return nil }, []string{dir}, 5)
	if sr.Status != StatusFailed {
		t.Errorf("expected failed when the expected path is a directory, got %q", sr.Status)
	}
}

func TestRunStepEmptyName(t *testing.T) {
	called := false
	sr := RunStep("", func() error { called = true; return nil }, nil, 5)
	if sr.Status != StatusFailed || called {
		t.Errorf("expected failed without invoking, got %q (called=%v)", sr.Status, called)
	}
	if !dagerrors.Is(sr.Error, dagerrors.ValidationError) {
		t.Errorf("expected validation error, got %+v", sr.Error)
	}
}

func TestRunStepErrorIsTyped(t *testing.T) {
	cause := &geocodeError{addr: "Ulsan"}
	sr := RunStep("map_spot", func() error { return cause }, nil, 5)
	if sr.Error == nil || sr.Error.Type != dagerrors.StepFailed || sr.Error.StepID != "map_spot" {
		t.Fatalf("expected STEP_FAILED error, got %+v", sr.Error)
	}
	var ge *geocodeError
	if !errors.As(sr.Error, &ge) {
		t.Error("expected the collaborator error as cause")
	}
	ok := RunStep("map_spot", func() error { return nil }, nil, 5)
	if ok.Error != nil {
		t.Errorf("expected no error on success, got %+v", ok.Error)
	}
}

func TestRunStepErrorStillRecordsArtifacts(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "naver_keywords.csv")
	sr := RunStep("text", func() error {
		os.WriteFile(out, []byte("k,v\n"), 0o644)
		return errors.New("wordcloud font missing")
	}, []string{out}, 5)
	if sr.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", sr.Status)
	}
	if len(sr.Artifacts) != 1 {
		t.Errorf("expected partial artifact recorded, got %v", sr.Artifacts)
	}
}
