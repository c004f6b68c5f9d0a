package collab

import (
	"testing"

	"github.com/stevehiehn/theaterdash/internal/config"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

func TestResolveCredentialsFromEnv(t *testing.T) {
	t.Setenv("NAVER_CLIENT_ID", "id")
	t.Setenv("NAVER_CLIENT_SECRET", "secret")
	step, _ := registry.StepByName("text_keywords")
	creds, err := resolveCredentials(step, config.Default(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds["NAVER_CLIENT_ID"] != "id" || creds["NAVER_CLIENT_SECRET"] != "secret" {
		t.Errorf("unexpected credentials %v", creds)
	}
}

func TestResolveCredentialsMissingIsConfigError(t *testing.T) {
	t.Setenv("KAKAO_REST_API_KEY", "")
	step, _ := registry.StepByName("map_stations")
	_, err := resolveCredentials(step, config.Default(t.TempDir()))
	if err == nil {
		t.Fatal("expected error for missing credential")
	}
	if !dagerrors.Is(err, dagerrors.ConfigError) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestResolveCredentialsStepWithoutSecrets(t *testing.T) {
	step, _ := registry.StepByName("trend_3d")
	creds, err := resolveCredentials(step, config.Default(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(creds) != 0 {
		t.Errorf("expected no credentials, got %v", creds)
	}
}
