package tools

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/isdmx/opsgate/config"
	"github.com/isdmx/opsgate/sandbox"
)

// fakeRunner records every Command and replays scripted results, so tests
// can assert on both the spawned invocations and the zero-spawn cases.
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

func (f *fakeRunner) call(i int) sandbox.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.ServerConfig{Transport: "http", HTTPPort: 8002},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
		Auth:    config.AuthConfig{APIKeys: []string{"test-key"}},
		Sandbox: config.SandboxConfig{
			AllowedPaths:    []string{t.TempDir()},
			BlockedPatterns: []string{`\.env$`, `credentials`, `secrets`, `\.pem$`, `\.key$`, `password`, `\.ssh`},
			AllowedServices: []string{"apis", "frontend", "worker-main"},
			Repos:           map[string]string{"backend": "/opt/opsgate/backend"},
			ServiceRepos:    map[string]string{"apis": "backend"},
			CommandPrefixes: []string{"docker ps", "uptime", "df -h"},
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

func testToolset(t *testing.T, runner sandbox.Runner) (*Toolset, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	ts, err := NewToolset(cfg, zaptest.NewLogger(t), runner)
	if err != nil {
		t.Fatalf("failed to build toolset: %v", err)
	}
	return ts, cfg
}
