package gateway

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/opsgate/audit"
	"github.com/isdmx/opsgate/config"
	"github.com/isdmx/opsgate/sandbox"
	"github.com/isdmx/opsgate/tools"
)

const testAPIKey = "gw-test-key"

// fakeRunner stands in for the process runner so no transport test ever
// spawns a real process.
type fakeRunner struct {
	mu            sync.Mutex
	calls         []sandbox.Command
	queue         []sandbox.ExecResult
	defaultResult sandbox.ExecResult
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{defaultResult: sandbox.ExecResult{Success: true}}
}

func (f *fakeRunner) Run(_ context.Context, c sandbox.Command) (sandbox.ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if len(f.queue) > 0 {
		result := f.queue[0]
		f.queue = f.queue[1:]
		return result, nil
	}
	return f.defaultResult, nil
}

func (f *fakeRunner) enqueue(results ...sandbox.ExecResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, results...)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func gatewayConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.ServerConfig{Transport: "http", HTTPPort: 8002},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
		Auth:    config.AuthConfig{APIKeys: []string{testAPIKey}},
		Audit:   config.AuditConfig{Path: filepath.Join(t.TempDir(), "audit.jsonl")},
		Sandbox: config.SandboxConfig{
			AllowedPaths:    []string{t.TempDir()},
			BlockedPatterns: []string{`\.env$`},
			AllowedServices: []string{"apis", "frontend"},
			Repos:           map[string]string{"backend": "/opt/opsgate/backend"},
			ServiceRepos:    map[string]string{"apis": "backend"},
			CommandPrefixes: []string{"uptime", "df -h"},
			ComposeDir:      "/opt/opsgate/deploy",

			DefaultTimeoutSec: 30,
			BuildTimeoutSec:   600,
		},
		Backend: config.BackendConfig{
			BaseURL:      "http://apis:8000",
			QueryService: "apis",
			QueryRunner:  []string{"query-runner"},
		},
	}
}

// newTestGateway wires a full gateway over the fake runner and serves it
// from an httptest server.
func newTestGateway(t *testing.T, runner sandbox.Runner) (*Gateway, *httptest.Server, *config.Config) {
	t.Helper()
	cfg := gatewayConfig(t)
	logger := zaptest.NewLogger(t)

	ts, err := tools.NewToolset(cfg, logger, runner)
	require.NoError(t, err)
	registry, err := tools.NewRegistryFromToolset(ts)
	require.NoError(t, err)

	recorder := audit.NewFromConfig(cfg, logger)
	dispatcher := tools.NewDispatcher(registry, logger, recorder)

	g, err := New(cfg, logger, dispatcher)
	require.NoError(t, err)

	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return g, srv, cfg
}
