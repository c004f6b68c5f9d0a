package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stevehiehn/theaterdash/internal/registry"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultOutputDir   = "outputs"
	DefaultTraceDepth  = 5
	DefaultPreviewRows = 10
	DefaultHistoryDSN  = ".theaterdash/history.db"
)

// Collaborator kinds.
const (
	KindExec = "exec"
	KindHTTP = "http"
)

// Config is the top-level configuration file.
// Keys it does not know (API settings read by the analysis scripts) are ignored.
type Config struct {
	Paths         Paths                   `yaml:"paths"`
	Outputs       map[string]string       `yaml:"outputs,omitempty"`
	Pipeline      Pipeline                `yaml:"pipeline"`
	Collaborators map[string]Collaborator `yaml:"collaborators,omitempty"`
	Credentials   map[string]string       `yaml:"credentials,omitempty"`
	History       History                 `yaml:"history"`
	Publish       Publish                 `yaml:"publish"`

	// BaseDir is where relative paths resolve; the config file's directory.
	BaseDir string `yaml:"-"`
	// Path is the file the config was read from, if any.
	Path string `yaml:"-"`
}

// Paths locates the output and working directories.
type Paths struct {
	OutputDir string `yaml:"output_dir,omitempty"` // default: outputs
	WorkDir   string `yaml:"work_dir,omitempty"`   // default: BaseDir
}

// Pipeline holds step enable flags and run policy.
type Pipeline struct {
	Flags             map[string]bool `yaml:"-"` // run_* switches; missing means enabled
	KeepIntermediates bool            `yaml:"keep_intermediates"`
	TraceDepth        int             `yaml:"trace_depth"`
	PreviewRows       int             `yaml:"preview_rows"`
}

// Collaborator describes how a step's work is carried out.
type Collaborator struct {
	Kind     string            `yaml:"kind,omitempty"` // exec (default) or http
	Command  []string          `yaml:"command,omitempty"`
	URL      string            `yaml:"url,omitempty"`
	Artifact string            `yaml:"artifact,omitempty"` // role key an http download is written to
	Env      map[string]string `yaml:"env,omitempty"`
}

// History configures the run index.
type History struct {
	Driver string `yaml:"driver,omitempty"` // sqlite, pgx, or empty to disable
	DSN    string `yaml:"dsn,omitempty"`
}

// Publish configures upload of final reports to S3-compatible storage.
type Publish struct {
	Endpoint  string `yaml:"endpoint,omitempty"` // host:port, empty disables
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// Enabled reports whether publishing is configured.
func (p Publish) Enabled() bool { return p.Endpoint != "" }

// UnmarshalYAML splits run_* flags from the named policy settings.
func (p *Pipeline) UnmarshalYAML(n *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := n.Decode(&raw); err != nil {
		return err
	}
	for key, node := range raw {
		var err error
		switch key {
		case "keep_intermediates":
			err = node.Decode(&p.KeepIntermediates)
		case "trace_depth":
			err = node.Decode(&p.TraceDepth)
		case "preview_rows":
			err = node.Decode(&p.PreviewRows)
		default:
			var b bool
			if err = node.Decode(&b); err == nil {
				if p.Flags == nil {
					p.Flags = map[string]bool{}
				}
				p.Flags[key] = b
			}
		}
		if err != nil {
			return fmt.Errorf("pipeline.%s: %w", key, err)
		}
	}
	return nil
}

// Enabled resolves a step flag; unset flags are enabled.
func (p Pipeline) Enabled(flag string) bool {
	v, ok := p.Flags[flag]
	return !ok || v
}

// SetFlag overrides a step flag.
func (p *Pipeline) SetFlag(flag string, v bool) {
	if p.Flags == nil {
		p.Flags = map[string]bool{}
	}
	p.Flags[flag] = v
}

// defaultCollaborators run the analysis scripts next to the config file.
var defaultCollaborators = map[string]Collaborator{
	"map_stations":        {Kind: KindExec, Command: []string{"python3", "Integrate_stations.py"}},
	"map_spot":            {Kind: KindExec, Command: []string{"python3", "Spot.py"}},
	"movie_visualization": {Kind: KindExec, Command: []string{"python3", "Visualization.py"}},
	"trend_3d":            {Kind: KindExec, Command: []string{"python3", "Graph3D.py"}},
	"consumption_share":   {Kind: KindExec, Command: []string{"python3", "Consumtion_Share_Analysis.py"}},
	"text_keywords":       {Kind: KindExec, Command: []string{"python3", "text_analysis.py"}},
}

// Default returns a configuration with every default applied, rooted at baseDir.
func Default(baseDir string) *Config {
	c := &Config{BaseDir: baseDir}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = DefaultOutputDir
	}
	if c.Pipeline.TraceDepth == 0 {
		c.Pipeline.TraceDepth = DefaultTraceDepth
	}
	if c.Pipeline.PreviewRows == 0 {
		c.Pipeline.PreviewRows = DefaultPreviewRows
	}
	if c.History.Driver == "sqlite" && c.History.DSN == "" {
		c.History.DSN = DefaultHistoryDSN
	}
	for name, collab := range c.Collaborators {
		if collab.Kind == "" {
			collab.Kind = KindExec
			c.Collaborators[name] = collab
		}
	}
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string {
	return c.abs(c.Paths.OutputDir)
}

// WorkDir returns the absolute directory collaborators run in.
func (c *Config) WorkDir() string {
	if c.Paths.WorkDir == "" {
		return c.abs(".")
	}
	return c.abs(c.Paths.WorkDir)
}

// OutputName returns the configured filename for an artifact role.
func (c *Config) OutputName(key string) string {
	if name, ok := c.Outputs[key]; ok && name != "" {
		return name
	}
	r, _ := registry.Role(key)
	return r.Default
}

// OutputPath resolves an artifact role to an absolute path.
func (c *Config) OutputPath(key string) string {
	name := c.OutputName(key)
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(c.OutputDir(), name)
}

// Collaborator returns the configured collaborator for a step, or its default.
func (c *Config) Collaborator(step string) (Collaborator, bool) {
	if collab, ok := c.Collaborators[step]; ok {
		return collab, true
	}
	collab, ok := defaultCollaborators[step]
	return collab, ok
}

// Credential looks a secret up in the environment, then in the credentials block.
func (c *Config) Credential(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v, true
	}
	if v := c.Credentials[name]; v != "" {
		return v, true
	}
	return "", false
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.BaseDir, p)
}
