package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/opsgate/sandbox"
	"github.com/isdmx/opsgate/tools"
)

// handleHealth is the single unauthenticated REST endpoint.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serverName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !g.gate.Authorized(r) {
		g.writeUnauthorized(w)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "running",
		"version":          serverVersion,
		"tools":            g.registry.Names(),
		"allowed_services": g.cfg.Sandbox.AllowedServices,
		"allowed_repos":    repoNames(g.cfg.Sandbox.Repos),
	})
}

// handleToolREST serves the legacy one-endpoint-per-tool surface. It maps
// onto the same dispatcher as the protocol surface, so both enforce
// identical sandboxing.
func (g *Gateway) handleToolREST(w http.ResponseWriter, r *http.Request) {
	if !g.gate.Authorized(r) {
		g.writeUnauthorized(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/mcp/tools/")
	if name == "" || strings.Contains(name, "/") {
		g.writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown tool path"})
		return
	}

	args, err := g.restArgs(r)
	if err != nil {
		g.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	result, err := g.dispatcher.Dispatch(r.Context(), name, args)
	if err != nil {
		g.writeJSON(w, restStatus(err), map[string]any{"error": err.Error()})
		return
	}

	g.writeJSON(w, http.StatusOK, result)
}

// restArgs builds the argument map from a JSON body (POST) or query
// parameters (GET). Query values are coerced through a JSON decode so
// "50" and "true" arrive as the number and boolean the schema expects.
func (g *Gateway) restArgs(r *http.Request) (tools.Args, error) {
	args := tools.Args{}

	if r.Method == http.MethodPost && r.Body != nil {
		// An empty body means "no arguments"
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.New("invalid JSON body")
		}
	}

	for key, values := range r.URL.Query() {
		if key == apiKeyParam || len(values) == 0 {
			continue
		}
		if _, exists := args[key]; exists {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(values[0]), &v); err == nil {
			args[key] = v
		} else {
			args[key] = values[0]
		}
	}

	return args, nil
}

// restStatus maps the dispatcher's error taxonomy onto HTTP statuses.
func restStatus(err error) int {
	var unknown *tools.UnknownToolError
	var validation *tools.ValidationError
	var notFound *tools.NotFoundError
	var denied *sandbox.DeniedError

	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (g *Gateway) writeUnauthorized(w http.ResponseWriter) {
	g.writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error": "invalid or missing API key",
	})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to write response", zap.Error(err))
	}
}

func repoNames(repos map[string]string) []string {
	names := make([]string, 0, len(repos))
	for name := range repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
