package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/opsgate/tools"
)

// JSON-RPC 2.0 error codes used by the protocol surface.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInternalError  = -32603
	codeAuthRequired   = -32001
)

// protocolVersion is the MCP revision the gateway answers initialize with.
const protocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleRPC serves the MCP protocol surface. initialize is the single
// method reachable without a credential; everything else behind the gate.
func (g *Gateway) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeRPCError(w, nil, codeParseError, "parse error: invalid JSON")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("protocol handler panicked", zap.Any("panic", rec))
			g.writeRPCError(w, req.ID, codeInternalError, "internal error")
		}
	}()

	if req.Method != "initialize" && !g.gate.Authorized(r) {
		g.writeRPCError(w, req.ID, codeAuthRequired, "authentication required: supply X-API-Key header or key query parameter")
		return
	}

	switch req.Method {
	case "initialize":
		g.writeRPCResult(w, req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
		})

	case "notifications/initialized":
		g.writeRPCResult(w, req.ID, map[string]any{})

	case "tools/list":
		g.writeRPCResult(w, req.ID, map[string]any{
			"tools": g.registry.MCPTools(),
		})

	case "tools/call":
		var params callParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				g.writeRPCError(w, req.ID, codeParseError, "parse error: invalid tools/call params")
				return
			}
		}
		g.writeRPCResult(w, req.ID, g.callTool(r.Context(), params))

	default:
		g.writeRPCError(w, req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

// callTool dispatches and wraps the outcome as MCP content. Dispatcher
// failures become isError content, never transport errors: the remote
// operation failing is an expected, reportable outcome.
func (g *Gateway) callTool(ctx context.Context, params callParams) *mcp.CallToolResult {
	result, err := g.dispatcher.Dispatch(ctx, params.Name, tools.Args(params.Arguments))
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: err.Error()},
			},
			IsError: true,
		}
	}

	text, err := json.Marshal(result)
	if err != nil {
		g.logger.Error("failed to encode tool result", zap.Error(err))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: "internal error: unencodable tool result"},
			},
			IsError: true,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: string(text)},
		},
	}
}

func (g *Gateway) writeRPCResult(w http.ResponseWriter, id, result any) {
	g.writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (g *Gateway) writeRPCError(w http.ResponseWriter, id any, code int, message string) {
	g.writeJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
