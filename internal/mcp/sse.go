package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

type sseClient struct {
	id     string
	events chan []byte
}

type sseHub struct {
	srv     *Server
	mu      sync.Mutex
	clients map[string]*sseClient
	nextID  int
}

// Handler returns the SSE transport: GET /sse streams responses, POST
// /message accepts requests, GET /health reports connected clients.
func (s *Server) Handler() http.Handler {
	h := &sseHub{srv: s, clients: map[string]*sseClient{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", h.handleSSE)
	mux.HandleFunc("/message", h.handleMessage)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

// ServeSSE listens on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	s.logger.Info("mcp sse server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (h *sseHub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.mu.Lock()
	count := len(h.clients)
	h.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]any{
		"status":           "ok",
		"connectedClients": count,
	})
}

func (h *sseHub) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.mu.Lock()
	h.nextID++
	client := &sseClient{id: fmt.Sprintf("client-%d", h.nextID), events: make(chan []byte, 64)}
	h.clients[client.id] = client
	h.mu.Unlock()
	h.srv.logger.Debug("sse client connected", zap.String("client", client.id))

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", client.id)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			delete(h.clients, client.id)
			h.mu.Unlock()
			h.srv.logger.Debug("sse client disconnected", zap.String("client", client.id))
			return
		case data := <-client.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *sseHub) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(&JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: -32700, Message: "Parse error"},
		})
		return
	}

	resp := h.srv.dispatch(req)
	resp.JSONRPC = "2.0"
	resp.ID = req.ID
	data, _ := json.Marshal(resp)

	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		h.mu.Lock()
		client, ok := h.clients[sessionID]
		h.mu.Unlock()
		if ok {
			select {
			case client.events <- data:
			default:
				h.srv.logger.Warn("sse client buffer full, dropping message", zap.String("client", sessionID))
			}
		}
	}

	// The response is also returned inline for request/response clients.
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
