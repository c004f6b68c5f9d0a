package template

import (
	"testing"
)

func testCtx() *Context {
	return &Context{
		Outputs: map[string]string{"plot_3d_trendlines": "/out/trend.png"},
		Paths:   map[string]string{"output_dir": "/out", "work_dir": "/srv"},
		Env:     map[string]string{"KAKAO_REST_API_KEY": "k"},
	}
}

func TestResolveOutputs(t *testing.T) {
	result, err := Resolve("--out={{outputs.plot_3d_trendlines}}", testCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "--out=/out/trend.png" {
		t.Errorf("expected '--out=/out/trend.png', got %q", result)
	}
}

func TestResolveMultipleTemplates(t *testing.T) {
	result, err := Resolve("{{paths.work_dir}} {{ paths.output_dir }} {{env.KAKAO_REST_API_KEY}}", testCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "/srv /out k" {
		t.Errorf("expected '/srv /out k', got %q", result)
	}
}

func TestResolveErrorOnUnknownOutput(t *testing.T) {
	_, err := Resolve("{{outputs.histogram}}", testCtx())
	if err == nil {
		t.Fatal("expected error for unknown output key")
	}
}

func TestResolveErrorOnUnsetEnv(t *testing.T) {
	_, err := Resolve("{{env.NAVER_CLIENT_ID}}", testCtx())
	if err == nil {
		t.Fatal("expected error for unresolved env")
	}
}

func TestResolvePassthroughNoTemplates(t *testing.T) {
	result, err := Resolve("plain {{string}}", testCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "plain {{string}}" {
		t.Errorf("expected passthrough, got %q", result)
	}
}

func TestResolveAll(t *testing.T) {
	args, err := ResolveAll([]string{"python3", "Graph3D.py", "{{outputs.plot_3d_trendlines}}"}, testCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args[2] != "/out/trend.png" {
		t.Errorf("expected resolved arg, got %q", args[2])
	}
	if _, err := ResolveAll([]string{"{{outputs.nope}}"}, testCtx()); err == nil {
		t.Fatal("expected error")
	}
}
