// Package mcp exposes the pipeline as MCP tools over JSON-RPC, on stdio or
// an SSE transport.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/stevehiehn/theaterdash/internal/config"
	"go.uber.org/zap"
)

// JSONRPCRequest is a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Loader returns a fresh configuration for each tool call.
type Loader func() (*config.Config, error)

// Server answers MCP requests. Pipeline runs are serialized.
type Server struct {
	load    Loader
	logger  *zap.Logger
	version string
	runMu   sync.Mutex
}

// NewServer creates a server that loads its config through load.
func NewServer(load Loader, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{load: load, logger: logger, version: version}
}

// Serve reads newline-delimited requests from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			writeResponse(w, &JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: -32700, Message: "Parse error"},
			})
			continue
		}
		// Notifications carry no ID and get no response.
		if req.ID == nil && req.Method == "notifications/initialized" {
			continue
		}

		resp := s.dispatch(req)
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		writeResponse(w, resp)
	}
	return scanner.Err()
}

func writeResponse(w io.Writer, resp *JSONRPCResponse) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(w, "%s\n", data)
}
