package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stevehiehn/theaterdash/internal/collab"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/pipeline"
	"go.uber.org/zap"
)

type toolDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

var stepList = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

var builtinTools = []toolDef{
	{Name: "pipeline.steps", Description: "List the analysis steps, whether each is enabled, and its collaborator", InputSchema: map[string]any{
		"type": "object", "properties": map[string]any{}}},
	{Name: "pipeline.run", Description: "Run the pipeline and build the dashboard", InputSchema: map[string]any{
		"type": "object", "properties": map[string]any{
			"only":               stepList,
			"skip":               stepList,
			"keep_intermediates": map[string]any{"type": "boolean"},
		}}},
	{Name: "pipeline.last_run", Description: "Return the summary of the most recent run", InputSchema: map[string]any{
		"type": "object", "properties": map[string]any{}}},
	{Name: "config.validate", Description: "Validate the configuration file", InputSchema: map[string]any{
		"type": "object", "properties": map[string]any{}}},
}

func (s *Server) dispatch(req JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return &JSONRPCResponse{Result: map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "theaterdash", "version": s.version},
		}}
	case "tools/list":
		return &JSONRPCResponse{Result: map[string]any{"tools": builtinTools}}
	case "tools/call":
		return s.handleToolCall(req.Params)
	case "notifications/initialized", "ping":
		return &JSONRPCResponse{Result: map[string]any{}}
	default:
		return &JSONRPCResponse{Error: &RPCError{Code: -32601, Message: "Method not found"}}
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type runArgs struct {
	Only              []string `json:"only"`
	Skip              []string `json:"skip"`
	KeepIntermediates *bool    `json:"keep_intermediates"`
}

func (s *Server) handleToolCall(params json.RawMessage) *JSONRPCResponse {
	var tc toolCallParams
	if err := json.Unmarshal(params, &tc); err != nil {
		return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Invalid params"}}
	}

	switch tc.Name {
	case "pipeline.steps":
		cfg, err := s.config()
		if err != nil {
			return toolError(err)
		}
		return toolJSON(pipeline.Explain(cfg, collab.Options{}))
	case "pipeline.run":
		var args runArgs
		if len(tc.Arguments) > 0 {
			if err := json.Unmarshal(tc.Arguments, &args); err != nil {
				return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Invalid arguments: " + err.Error()}}
			}
		}
		return s.toolRun(args)
	case "pipeline.last_run":
		cfg, err := s.config()
		if err != nil {
			return toolError(err)
		}
		res, err := pipeline.LastRun(cfg)
		if errors.Is(err, pipeline.ErrNoRuns) {
			return &JSONRPCResponse{Result: toolContent("No runs recorded yet.")}
		}
		if err != nil {
			return toolError(err)
		}
		return toolJSON(res)
	case "config.validate":
		if _, err := s.config(); err != nil {
			return &JSONRPCResponse{Result: toolContent("Validation failed: " + err.Error())}
		}
		return &JSONRPCResponse{Result: toolContent("Config is valid.")}
	default:
		return &JSONRPCResponse{Error: &RPCError{Code: -32602, Message: "Unknown tool: " + tc.Name}}
	}
}

func (s *Server) toolRun(args runArgs) *JSONRPCResponse {
	cfg, err := s.config()
	if err != nil {
		return toolError(err)
	}
	if err := cfg.Select(args.Only, args.Skip); err != nil {
		return toolError(err)
	}
	if args.KeepIntermediates != nil {
		cfg.Pipeline.KeepIntermediates = *args.KeepIntermediates
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	res, err := pipeline.Run(context.Background(), cfg, pipeline.Options{Logger: s.logger})
	if err != nil {
		return toolError(err)
	}
	s.logger.Info("run via mcp", zap.String("run_id", res.RunID), zap.Int("exit_code", res.ExitCode))
	return toolJSON(map[string]any{
		"run_id":    res.RunID,
		"exit_code": res.ExitCode,
		"dashboard": res.Dashboard,
		"summary":   res.Summary,
	})
}

func (s *Server) config() (*config.Config, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toolJSON(v any) *JSONRPCResponse {
	data, _ := json.MarshalIndent(v, "", "  ")
	return &JSONRPCResponse{Result: toolContent(string(data))}
}

func toolError(err error) *JSONRPCResponse {
	res := toolContent(err.Error())
	res["isError"] = true
	return &JSONRPCResponse{Result: res}
}

func toolContent(text string) map[string]any {
	return map[string]any{"content": []map[string]any{{"type": "text", "text": text}}}
}
