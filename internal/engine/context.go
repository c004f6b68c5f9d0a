package engine

import (
	"github.com/google/uuid"
	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/registry"
	"go.uber.org/zap"
)

// RunContext holds state for one pipeline run.
type RunContext struct {
	RunID  string
	Config *config.Config
	Table  *collab.Table
	Steps  []registry.Step // defaults to registry.Steps()
	Logger *zap.Logger
}

// NewRunContext creates a new execution context.
func NewRunContext(cfg *config.Config, table *collab.Table, logger *zap.Logger) *RunContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunContext{
		RunID:  uuid.New().String(),
		Config: cfg,
		Table:  table,
		Steps:  registry.Steps(),
		Logger: logger,
	}
}
