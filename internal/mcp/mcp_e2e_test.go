package mcp

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// serveLines feeds newline-delimited requests through Serve and decodes the
// responses.
func serveLines(t *testing.T, s *Server, lines ...string) []JSONRPCResponse {
	t.Helper()
	var out strings.Builder
	if err := s.Serve(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out); err != nil {
		t.Fatalf("serve: %v", err)
	}
	var resps []JSONRPCResponse
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		var r JSONRPCResponse
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad response line %q: %v", sc.Text(), err)
		}
		resps = append(resps, r)
	}
	return resps
}

func shellConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Collaborators = map[string]config.Collaborator{
		"trend_3d":          {Kind: config.KindExec, Command: []string{"sh", "-c", "printf png > {{outputs.plot_3d_trendlines}}"}},
		"consumption_share": {Kind: config.KindExec, Command: []string{"sh", "-c", "echo 'ValueError: empty frame' >&2; exit 1"}},
	}
	cfg.Pipeline.SetFlag(registry.FlagMaps, false)
	cfg.Pipeline.SetFlag(registry.FlagMovies, false)
	cfg.Pipeline.SetFlag(registry.FlagText, false)
	return cfg
}

func TestServeSessionRunsPipeline(t *testing.T) {
	cfg := shellConfig(t)
	s := NewServer(staticLoader(cfg), nil, "test")

	resps := serveLines(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"pipeline.run","arguments":{"keep_intermediates":true}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"pipeline.last_run"}}`,
	)
	if len(resps) != 3 {
		t.Fatalf("expected 3 responses (notification unanswered), got %d", len(resps))
	}

	var run struct {
		ExitCode int `json:"exit_code"`
		Summary  struct {
			FailedSteps    []string `json:"failed_steps"`
			GeneratedFiles []string `json:"generated_files"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(responseText(t, &resps[1])), &run); err != nil {
		t.Fatal(err)
	}
	if run.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %d", run.ExitCode)
	}
	if len(run.Summary.FailedSteps) != 1 || run.Summary.FailedSteps[0] != "consumption_share" {
		t.Errorf("unexpected failed steps %v", run.Summary.FailedSteps)
	}
	if len(run.Summary.GeneratedFiles) != 1 || run.Summary.GeneratedFiles[0] != "theater_3d_trendlines.png" {
		t.Errorf("unexpected generated files %v", run.Summary.GeneratedFiles)
	}
	if _, err := os.Stat(cfg.OutputPath("plot_3d_trendlines")); err != nil {
		t.Errorf("expected intermediate kept: %v", err)
	}

	last := responseText(t, &resps[2])
	if !strings.Contains(last, "ValueError: empty frame") {
		t.Errorf("expected last run to carry the step trace, got %s", last)
	}
}

func TestServeRunWithSelection(t *testing.T) {
	cfg := shellConfig(t)
	s := NewServer(staticLoader(cfg), nil, "test")
	resps := serveLines(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"pipeline.run","arguments":{"only":["trend_3d"]}}}`,
	)
	text := responseText(t, &resps[0])
	if !strings.Contains(text, `"exit_code": 0`) {
		t.Errorf("expected clean run, got %s", text)
	}
	if _, err := os.Stat(cfg.OutputPath("plot_3d_trendlines")); !os.IsNotExist(err) {
		t.Error("expected intermediate removed after the run")
	}
}

func TestServeRunRejectsUnknownStep(t *testing.T) {
	s := NewServer(staticLoader(shellConfig(t)), nil, "test")
	resps := serveLines(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"pipeline.run","arguments":{"skip":["nope"]}}}`,
	)
	if !strings.Contains(responseText(t, &resps[0]), `unknown step "nope"`) {
		t.Error("expected unknown step error")
	}
}

func TestServeParseError(t *testing.T) {
	s := NewServer(staticLoader(config.Default(t.TempDir())), nil, "test")
	resps := serveLines(t, s, `{not json`)
	if len(resps) != 1 || resps[0].Error == nil || resps[0].Error.Code != -32700 {
		t.Fatalf("expected parse error, got %+v", resps)
	}
}
