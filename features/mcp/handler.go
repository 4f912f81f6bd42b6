// Package mcp exposes the ESG collection as Model Context Protocol tools over
// JSON-RPC, both as a single POST endpoint and as an SSE session transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"esgrag/internal/answer"
	"esgrag/internal/content"
	"esgrag/internal/httpapi"
)

const keepAliveInterval = 15 * time.Second

type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]content.Result, error)
}

type Asker interface {
	Ask(ctx context.Context, query string) (*answer.Answer, error)
}

type Handler struct {
	retriever Retriever
	asker     Asker
	sessions  *sessions
}

func NewHandler(r Retriever, a Asker) *Handler {
	return &Handler{retriever: r, asker: a, sessions: newSessions()}
}

var serverInfo = map[string]any{
	"protocolVersion": "2024-11-05",
	"capabilities":    map[string]any{"tools": map[string]any{}},
	"serverInfo":      map[string]any{"name": "esgrag-mcp", "version": "1.0.0"},
}

// processRequest returns nil for notifications.
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, serverInfo)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, ListToolsResult{Tools: toolList()})
	case "tools/call":
		return h.callTool(ctx, req)
	}

	slog.WarnContext(ctx, "unknown jsonrpc method", "method", req.Method)
	return errorResponse(req.ID, rpcError(ErrMethodNotFound, "Method not found"))
}

func (h *Handler) callTool(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		slog.WarnContext(ctx, "invalid params structure", "error", err)
		return errorResponse(req.ID, rpcError(ErrInvalidParams, "Invalid params"))
	}

	tool, ok := lookupTool(params.Name)
	if !ok {
		slog.WarnContext(ctx, "unknown tool", "tool", params.Name)
		return errorResponse(req.ID, rpcError(ErrMethodNotFound, "Method not found: "+params.Name))
	}

	result, rpcErr := tool.run(h, ctx, params.Arguments)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return resultResponse(req.ID, result)
}

// ServeHTTP answers one JSON-RPC request per POST. JSON-RPC errors travel
// with 200 OK.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.InfoContext(ctx, "mcp request received", "method", r.Method, "path", r.URL.Path)

	var resp *JSONRPCResponse
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp = errorResponse(nil, rpcError(ErrParse, "Parse error"))
	} else if resp = h.processRequest(ctx, req); resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// HandleSSE opens a session and streams its responses as server-sent events.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, stream := h.sessions.open()
	defer func() {
		h.sessions.close(id)
		slog.Info("sse session ended", "session_id", id)
	}()
	slog.Info("sse session started", "session_id", id)

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s/mcp/messages?sessionId=%s", scheme, r.Host, id)

	writeEvent(w, "endpoint", html.EscapeString(endpoint))
	writeEvent(w, "id", html.EscapeString(id))
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-stream:
			writeEvent(w, "message", string(msg))
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
		case <-r.Context().Done():
			return
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// HandleMessage accepts a JSON-RPC request for an open SSE session. The
// response is delivered on the session stream.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("sessionId")
	if id == "" {
		slog.WarnContext(ctx, "missing sessionId in message request")
		httpapi.WriteError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing sessionId")
		return
	}
	if !h.sessions.exists(id) {
		slog.WarnContext(ctx, "session not found", "session_id", id)
		httpapi.WriteError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Session not found")
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.WarnContext(ctx, "invalid json in message request", "error", err)
		httpapi.WriteError(ctx, w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	w.WriteHeader(http.StatusAccepted)

	bgCtx := context.WithoutCancel(ctx)
	go func() {
		resp := h.processRequest(bgCtx, req)
		if resp == nil {
			return
		}
		msg, err := json.Marshal(resp)
		if err != nil {
			slog.ErrorContext(bgCtx, "failed to marshal response", "error", err)
			return
		}
		if !h.sessions.deliver(id, msg) {
			slog.WarnContext(bgCtx, "dropping response for closed or full session", "session_id", id)
		}
	}()
}
