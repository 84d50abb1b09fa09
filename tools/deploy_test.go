package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/opsgate/sandbox"
)

func TestDeployService(t *testing.T) {
	ctx := context.Background()

	t.Run("RunsPullBuildUpInOrder", func(t *testing.T) {
		runner := newFakeRunner()
		runner.enqueue(
			sandbox.ExecResult{Stdout: "Already up to date.", Success: true},
			sandbox.ExecResult{Stdout: "built", Success: true},
			sandbox.ExecResult{Stdout: "started", Success: true},
		)
		ts, cfg := testToolset(t, runner)

		result, err := ts.deployService(ctx, Args{"service": "apis"})
		require.NoError(t, err)

		m := result.(map[string]any)
		assert.Equal(t, true, m["overall_success"])

		steps := m["steps"].([]map[string]any)
		require.Len(t, steps, 3)
		assert.Equal(t, "git_pull", steps[0]["step"])
		assert.Equal(t, "docker_build", steps[1]["step"])
		assert.Equal(t, "docker_up", steps[2]["step"])

		require.Equal(t, 3, runner.callCount())
		assert.Equal(t, []string{"git", "-C", "/opt/opsgate/backend", "pull"}, runner.call(0).Argv)
		assert.Equal(t, []string{"docker", "compose", "build", "--no-cache", "apis"}, runner.call(1).Argv)
		assert.Equal(t, cfg.Sandbox.ComposeDir, runner.call(1).Dir)
		assert.Equal(t, []string{"docker", "compose", "up", "-d", "apis"}, runner.call(2).Argv)
	})

	t.Run("FailedBuildSkipsUp", func(t *testing.T) {
		runner := newFakeRunner()
		runner.enqueue(
			sandbox.ExecResult{Success: true},
			sandbox.ExecResult{Stderr: "build failed", ExitCode: 1},
		)
		ts, _ := testToolset(t, runner)

		result, err := ts.deployService(ctx, Args{"service": "apis"})
		require.NoError(t, err)

		m := result.(map[string]any)
		assert.Equal(t, false, m["overall_success"])

		steps := m["steps"].([]map[string]any)
		require.Len(t, steps, 2)
		assert.Equal(t, "docker_build", steps[1]["step"])
		assert.Equal(t, 2, runner.callCount())
	})

	t.Run("PullFalseSkipsGit", func(t *testing.T) {
		runner := newFakeRunner()
		ts, _ := testToolset(t, runner)

		_, err := ts.deployService(ctx, Args{"service": "apis", "pull": false})
		require.NoError(t, err)

		require.GreaterOrEqual(t, runner.callCount(), 1)
		assert.Equal(t, "docker", runner.call(0).Argv[0])
	})

	t.Run("ServiceWithoutRepoSkipsPull", func(t *testing.T) {
		runner := newFakeRunner()
		ts, _ := testToolset(t, runner)

		// frontend is allowed but has no repo mapping
		result, err := ts.deployService(ctx, Args{"service": "frontend"})
		require.NoError(t, err)

		steps := result.(map[string]any)["steps"].([]map[string]any)
		assert.Equal(t, "docker_build", steps[0]["step"])
	})

	t.Run("NoCacheFalseDropsFlag", func(t *testing.T) {
		runner := newFakeRunner()
		ts, _ := testToolset(t, runner)

		_, err := ts.deployService(ctx, Args{"service": "frontend", "no_cache": false})
		require.NoError(t, err)

		assert.Equal(t, []string{"docker", "compose", "build", "frontend"}, runner.call(0).Argv)
	})

	t.Run("UnknownService", func(t *testing.T) {
		runner := newFakeRunner()
		ts, _ := testToolset(t, runner)

		_, err := ts.deployService(ctx, Args{"service": "neo4j"})
		var invalid *ValidationError
		require.ErrorAs(t, err, &invalid)
		assert.Zero(t, runner.callCount())
	})
}

func TestRestartService(t *testing.T) {
	runner := newFakeRunner()
	runner.enqueue(sandbox.ExecResult{Stdout: "done", Success: true})
	ts, cfg := testToolset(t, runner)

	result, err := ts.restartService(context.Background(), Args{"service": "worker-main", "confirm": true})
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, true, m["success"])

	require.Equal(t, 1, runner.callCount())
	assert.Equal(t, []string{"docker", "compose", "restart", "worker-main"}, runner.call(0).Argv)
	assert.Equal(t, cfg.Sandbox.ComposeDir, runner.call(0).Dir)
}

func TestDockerStatus(t *testing.T) {
	runner := newFakeRunner()
	runner.enqueue(
		sandbox.ExecResult{
			Stdout:  "{\"Names\":\"apis\",\"State\":\"running\"}\n{\"Names\":\"frontend\",\"State\":\"exited\"}\nnot json\n",
			Success: true,
		},
		sandbox.ExecResult{Stdout: "running 2026-08-20T10:00:00Z", Success: true}, // apis
		sandbox.ExecResult{ExitCode: 1},                                          // frontend not inspectable
		sandbox.ExecResult{Stdout: "running 2026-08-21T09:00:00Z", Success: true}, // worker-main
	)
	ts, _ := testToolset(t, runner)

	result, err := ts.dockerStatus(context.Background(), Args{})
	require.NoError(t, err)

	m := result.(map[string]any)
	containers := m["containers"].([]map[string]any)
	require.Len(t, containers, 2, "unparseable lines are skipped")
	assert.Equal(t, "apis", containers[0]["Names"])

	services := m["services"].(map[string]any)
	require.Contains(t, services, "apis")
	assert.NotContains(t, services, "frontend", "failed inspect drops the service")
	apis := services["apis"].(map[string]any)
	assert.Equal(t, "running", apis["status"])
	assert.Equal(t, "2026-08-20T10:00:00Z", apis["started_at"])
}
