package collab

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stevehiehn/theaterdash/internal/config"
)

func TestHTTPCollaboratorDownloadsArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte("<html>map</html>"))
	}))
	defer server.Close()

	cfg := config.Default(t.TempDir())
	cfg.Credentials = map[string]string{"KAKAO_REST_API_KEY": "k"}
	cfg.Collaborators = map[string]config.Collaborator{
		"map_spot": {Kind: config.KindHTTP, URL: server.URL + "/map.html"},
	}
	table := Build(cfg, Options{})
	run, err := table.Get("map_spot")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(cfg.OutputPath("map_spot"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "<html>map</html>" {
		t.Errorf("unexpected content %q", string(data))
	}
	entry, _ := table.Entry("map_spot")
	if !strings.HasPrefix(entry.Describe, "http: GET ") {
		t.Errorf("unexpected description %q", entry.Describe)
	}
}

func TestHTTPCollaboratorErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.csv")
	err := download(http.DefaultClient, server.URL, dest)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", httpErr.StatusCode)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("expected no file to be written")
	}
}

func TestHTTPCollaboratorUnresolvedURL(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Collaborators = map[string]config.Collaborator{
		"trend_3d": {Kind: config.KindHTTP, URL: "http://x/{{env.NOPE}}"},
	}
	if _, err := Build(cfg, Options{}).Get("trend_3d"); err == nil {
		t.Fatal("expected load error for unresolved template")
	}
}
