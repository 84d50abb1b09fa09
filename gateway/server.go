package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/opsgate/config"
	"github.com/isdmx/opsgate/tools"
)

const (
	serverName    = "opsgate"
	serverVersion = "1.0.0"
)

// Gateway ties the authentication gate, the protocol handler, the legacy
// REST surface, and the stdio transport to one dispatcher.
type Gateway struct {
	cfg        *config.Config
	logger     *zap.Logger
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	gate       *Gate
	mcpServer  *server.MCPServer
}

// New creates a Gateway and registers the tool catalog on the stdio
// transport.
func New(cfg *config.Config, logger *zap.Logger, dispatcher *tools.Dispatcher) (*Gateway, error) {
	g := &Gateway{
		cfg:        cfg,
		logger:     logger,
		registry:   dispatcher.Registry(),
		dispatcher: dispatcher,
		gate:       NewGate(cfg.Auth.APIKeys),
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.Int("auth.api_keys", len(cfg.Auth.APIKeys)),
		zap.Strings("sandbox.allowed_paths", cfg.Sandbox.AllowedPaths),
		zap.Strings("sandbox.allowed_services", cfg.Sandbox.AllowedServices),
		zap.Int("sandbox.command_prefixes", len(cfg.Sandbox.CommandPrefixes)),
		zap.String("sandbox.compose_dir", cfg.Sandbox.ComposeDir),
		zap.String("backend.base_url", cfg.Backend.BaseURL),
		zap.Int("tools", len(g.registry.Names())),
	)

	g.mcpServer = server.NewMCPServer(serverName, serverVersion)
	for _, tool := range g.registry.MCPTools() {
		g.mcpServer.AddTool(tool, g.stdioToolHandler(tool.Name))
	}

	return g, nil
}

// stdioToolHandler adapts one registry tool to the stdio transport. The
// stdio surface is local and credential-less; it still dispatches through
// the same choke point, so sandboxing is identical to HTTP.
func (g *Gateway) stdioToolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return g.callTool(ctx, callParams{
			Name:      name,
			Arguments: request.GetArguments(),
		}), nil
	}
}

// Handler returns the HTTP surface of the gateway
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/mcp", g.handleRPC)
	mux.HandleFunc("/mcp/", g.handleMCPSubtree)
	return mux
}

// handleMCPSubtree routes the /mcp/ subtree: the trailing-slash protocol
// alias, the status endpoint, and the per-tool REST endpoints.
func (g *Gateway) handleMCPSubtree(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/mcp/":
		g.handleRPC(w, r)
	case r.URL.Path == "/mcp/status":
		g.handleStatus(w, r)
	case len(r.URL.Path) > len("/mcp/tools/") && r.URL.Path[:len("/mcp/tools/")] == "/mcp/tools/":
		g.handleToolREST(w, r)
	default:
		g.writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	}
}

// ServeStdio starts the server on stdio
func (g *Gateway) ServeStdio() error {
	g.logger.Info("starting gateway on stdio")
	return server.ServeStdio(g.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (g *Gateway) ServeHTTP() error {
	addr := fmt.Sprintf(":%d", g.cfg.Server.HTTPPort)
	g.logger.Info("starting gateway on HTTP", zap.String("addr", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
