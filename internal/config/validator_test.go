package config

import (
	"testing"

	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
)

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(Default("/srv")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownFlag(t *testing.T) {
	c := Default("/srv")
	c.Pipeline.SetFlag("run_everything", true)
	err := Validate(c)
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !dagerrors.Is(err, dagerrors.ValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsTraceDepthBelowOne(t *testing.T) {
	c := Default("/srv")
	c.Pipeline.TraceDepth = -1
	if err := Validate(c); err == nil {
		t.Fatal("expected error for negative trace depth")
	}
}

func TestValidateRejectsUnknownOutputKey(t *testing.T) {
	c := Default("/srv")
	c.Outputs = map[string]string{"histogram": "h.png"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for unknown output key")
	}
}

func TestValidateRejectsSharedOutputFile(t *testing.T) {
	c := Default("/srv")
	c.Outputs = map[string]string{"movie_sales_plot": "movie_audience_by_year.png"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error when two roles share a file")
	}
}

func TestValidateRejectsUnknownCollaboratorKind(t *testing.T) {
	c := Default("/srv")
	c.Collaborators = map[string]Collaborator{"trend_3d": {Kind: "grpc"}}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestValidateRejectsCollaboratorForUnknownStep(t *testing.T) {
	c := Default("/srv")
	c.Collaborators = map[string]Collaborator{"histogram": {Kind: KindExec, Command: []string{"true"}}}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestValidateRejectsExecWithoutCommand(t *testing.T) {
	c := Default("/srv")
	c.Collaborators = map[string]Collaborator{"trend_3d": {Kind: KindExec}}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for exec without command")
	}
}

func TestValidateHTTPCollaboratorArtifact(t *testing.T) {
	c := Default("/srv")
	c.Collaborators = map[string]Collaborator{"movie_visualization": {Kind: KindHTTP, URL: "http://x"}}
	if err := Validate(c); err == nil {
		t.Fatal("expected error: multi-artifact step needs an explicit artifact")
	}
	c.Collaborators["movie_visualization"] = Collaborator{Kind: KindHTTP, URL: "http://x", Artifact: "map_spot"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error: artifact from another step")
	}
	c.Collaborators["movie_visualization"] = Collaborator{Kind: KindHTTP, URL: "http://x", Artifact: "movie_sales_plot"}
	if err := Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateHistoryAndPublish(t *testing.T) {
	c := Default("/srv")
	c.History.Driver = "mysql"
	if err := Validate(c); err == nil {
		t.Fatal("expected error for unknown history driver")
	}
	c.History = History{Driver: "pgx"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for pgx without dsn")
	}
	c.History = History{}
	c.Publish = Publish{Endpoint: "https://minio:9000", Bucket: "b"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for endpoint with scheme")
	}
	c.Publish = Publish{Endpoint: "minio:9000"}
	if err := Validate(c); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
