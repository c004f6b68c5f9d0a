package collab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/stevehiehn/theaterdash/internal/config"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"github.com/stevehiehn/theaterdash/internal/template"
)

// HTTPError reports a download that got an error status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, lastLine(e.Body))
}

// newDownload fetches a pre-rendered artifact into the step's output path.
func newDownload(step registry.Step, collab config.Collaborator, cfg *config.Config, client *http.Client) (string, Capability, error) {
	key := collab.Artifact
	if key == "" && len(step.Artifacts) == 1 {
		key = step.Artifacts[0]
	}
	if key == "" {
		return "", nil, dagerrors.NewLoadError(step.Name, fmt.Errorf("http collaborator must name its artifact"))
	}
	url, err := template.Resolve(collab.URL, templateContext(cfg, collab.Env))
	if err != nil {
		return "", nil, dagerrors.NewLoadError(step.Name, err)
	}
	dest := cfg.OutputPath(key)

	run := func() error {
		return download(client, url, dest)
	}
	return fmt.Sprintf("http: GET %s -> %s", url, filepath.Base(dest)), run, nil
}

func download(client *http.Client, url, dest string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("http: failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("http: failed to read response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return os.Rename(tmp.Name(), dest)
}
