package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

// stepOutputLimit bounds the output carried per deploy step; build logs
// can run to megabytes.
const stepOutputLimit = 2000

func (ts *Toolset) deployService(ctx context.Context, args Args) (any, error) {
	service, err := ts.requireService(args)
	if err != nil {
		return nil, err
	}

	var steps []map[string]any

	// Git pull if requested and the service maps to a repo
	if args.Bool("pull", true) {
		if repo, ok := ts.cfg.Sandbox.ServiceRepos[service]; ok {
			if repoPath, ok := ts.cfg.RepoPath(repo); ok {
				result, err := ts.runner.Run(ctx, sandbox.Command{
					Argv:    []string{"git", "-C", repoPath, "pull"},
					Timeout: 60 * time.Second,
				})
				if err != nil {
					return nil, err
				}
				steps = append(steps, map[string]any{
					"step":    "git_pull",
					"repo":    repo,
					"success": result.Success,
					"output":  result.Stdout + result.Stderr,
				})
			}
		}
	}

	buildArgv := []string{"docker", "compose", "build"}
	if args.Bool("no_cache", true) {
		buildArgv = append(buildArgv, "--no-cache")
	}
	buildArgv = append(buildArgv, service)

	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    buildArgv,
		Dir:     ts.cfg.Sandbox.ComposeDir,
		Timeout: ts.cfg.GetBuildTimeout(),
	})
	if err != nil {
		return nil, err
	}
	steps = append(steps, map[string]any{
		"step":    "docker_build",
		"success": result.Success,
		"output":  tail(result.Stdout, stepOutputLimit) + tail(result.Stderr, stepOutputLimit),
	})

	// The up step never runs after a failed build
	if result.Success {
		result, err = ts.runner.Run(ctx, sandbox.Command{
			Argv:    []string{"docker", "compose", "up", "-d", service},
			Dir:     ts.cfg.Sandbox.ComposeDir,
			Timeout: 120 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		steps = append(steps, map[string]any{
			"step":    "docker_up",
			"success": result.Success,
			"output":  result.Stdout + result.Stderr,
		})
	}

	overall := true
	for _, step := range steps {
		if ok, _ := step["success"].(bool); !ok {
			overall = false
		}
	}

	return map[string]any{
		"service":         service,
		"steps":           steps,
		"overall_success": overall,
	}, nil
}

func (ts *Toolset) restartService(ctx context.Context, args Args) (any, error) {
	service, err := ts.requireService(args)
	if err != nil {
		return nil, err
	}

	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"docker", "compose", "restart", service},
		Dir:     ts.cfg.Sandbox.ComposeDir,
		Timeout: 120 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"service": service,
		"success": result.Success,
		"output":  result.Stdout + result.Stderr,
	}, nil
}

func (ts *Toolset) dockerStatus(ctx context.Context, args Args) (any, error) {
	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"docker", "ps", "-a", "--format", "{{json .}}"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var containers []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		var c map[string]any
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			continue
		}
		containers = append(containers, c)
	}

	services := map[string]any{}
	for _, service := range ts.cfg.Sandbox.AllowedServices {
		inspect, err := ts.runner.Run(ctx, sandbox.Command{
			Argv:    []string{"docker", "inspect", service, "--format", "{{.State.Status}} {{.State.StartedAt}}"},
			Timeout: 5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if !inspect.Success {
			continue
		}
		parts := strings.Fields(inspect.Stdout)
		status, startedAt := "unknown", "unknown"
		if len(parts) > 0 {
			status = parts[0]
		}
		if len(parts) > 1 {
			startedAt = parts[1]
		}
		services[service] = map[string]any{
			"status":     status,
			"started_at": startedAt,
		}
	}

	return map[string]any{
		"containers": containers,
		"services":   services,
	}, nil
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
