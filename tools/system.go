package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

func (ts *Toolset) systemHealth(ctx context.Context, args Args) (any, error) {
	cpu, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"cat", "/proc/loadavg"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	cpuLoad := []string{"unknown"}
	if cpu.Success {
		if fields := strings.Fields(cpu.Stdout); len(fields) >= 3 {
			cpuLoad = fields[:3]
		}
	}

	mem, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"free", "-h"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	memory := map[string]any{"total": "unknown", "used": "unknown", "free": "unknown"}
	if mem.Success {
		for _, line := range strings.Split(mem.Stdout, "\n") {
			if !strings.HasPrefix(line, "Mem") {
				continue
			}
			parts := strings.Fields(line)
			if len(parts) > 3 {
				memory["total"] = parts[1]
				memory["used"] = parts[2]
				memory["free"] = parts[3]
			}
			break
		}
	}

	df, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"df", "-h", "/"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	disk := map[string]any{"total": "unknown", "used": "unknown", "available": "unknown", "use_percent": "unknown"}
	if df.Success {
		lines := strings.Split(strings.TrimSpace(df.Stdout), "\n")
		if len(lines) > 0 {
			parts := strings.Fields(lines[len(lines)-1])
			if len(parts) > 4 {
				disk["total"] = parts[1]
				disk["used"] = parts[2]
				disk["available"] = parts[3]
				disk["use_percent"] = parts[4]
			}
		}
	}

	status, err := ts.dockerStatus(ctx, args)
	if err != nil {
		return nil, err
	}
	services := any(map[string]any{})
	if m, ok := status.(map[string]any); ok {
		services = m["services"]
	}

	return map[string]any{
		"cpu_load":        cpuLoad,
		"memory":          memory,
		"disk":            disk,
		"docker_services": services,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (ts *Toolset) dailyStats(ctx context.Context, _ Args) (any, error) {
	url := ts.cfg.Backend.BaseURL + "/api/stats"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileContent))
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}

	var stats any
	if err := json.Unmarshal(body, &stats); err != nil {
		return map[string]any{"raw": string(body)}, nil
	}
	return stats, nil
}
