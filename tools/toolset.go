package tools

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/isdmx/opsgate/config"
	"github.com/isdmx/opsgate/sandbox"
)

// Toolset carries the shared dependencies of every tool handler: the
// immutable configuration, the compiled sandbox policies, the process
// runner, and a bounded HTTP client for the internal backend API.
type Toolset struct {
	cfg      *config.Config
	logger   *zap.Logger
	runner   sandbox.Runner
	paths    *sandbox.PathPolicy
	commands *sandbox.CommandPolicy
	client   *http.Client
}

// NewToolset compiles the sandbox policies from configuration
func NewToolset(cfg *config.Config, logger *zap.Logger, runner sandbox.Runner) (*Toolset, error) {
	paths, err := sandbox.NewPathPolicy(cfg.Sandbox.AllowedPaths, cfg.Sandbox.BlockedPatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to build path policy: %w", err)
	}

	return &Toolset{
		cfg:      cfg,
		logger:   logger,
		runner:   runner,
		paths:    paths,
		commands: sandbox.NewCommandPolicy(cfg.Sandbox.CommandPrefixes),
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// NewRegistryFromToolset builds the full static tool catalog.
func NewRegistryFromToolset(ts *Toolset) (*Registry, error) {
	return NewRegistry(
		// Log tools
		Tool{
			Name:        "read_log",
			Description: "Read recent logs from a managed service",
			InputSchema: objectSchema(props{
				"service": prop("string", "Service name (e.g. 'worker-main', 'apis')"),
				"lines":   prop("integer", "Number of lines to return (default 100)"),
				"since":   prop("string", "Show logs since (e.g. '1h', '30m', '2024-01-01')"),
			}, "service"),
			Handler: ts.readLog,
		},
		Tool{
			Name:        "search_logs",
			Description: "Search service logs for a regex pattern",
			InputSchema: objectSchema(props{
				"pattern": prop("string", "Regex pattern to search for"),
				"service": prop("string", "Limit to a specific service"),
				"since":   prop("string", "How far back to search (default '1h')"),
				"lines":   prop("integer", "Max matching lines per service (default 500)"),
			}, "pattern"),
			Handler: ts.searchLogs,
		},
		Tool{
			Name:        "tail_logs",
			Description: "Get the most recent logs from a service (for polling)",
			InputSchema: objectSchema(props{
				"service": prop("string", "Service name"),
				"lines":   prop("integer", "Number of lines (default 50)"),
			}, "service"),
			Handler: ts.tailLogs,
		},

		// File tools
		Tool{
			Name:        "read_file",
			Description: "Read a file under the allowed directories",
			InputSchema: objectSchema(props{
				"path":   prop("string", "Absolute path to file"),
				"lines":  prop("integer", "Limit to first N lines after offset"),
				"offset": prop("integer", "Start from line N"),
			}, "path"),
			Handler: ts.readFile,
		},
		Tool{
			Name:        "search_files",
			Description: "Search for files by name pattern",
			InputSchema: objectSchema(props{
				"pattern":     prop("string", "File name pattern (glob)"),
				"path":        prop("string", "Directory to search in (default: first allowed root)"),
				"max_results": prop("integer", "Maximum files to return (default 100)"),
			}, "pattern"),
			Handler: ts.searchFiles,
		},
		Tool{
			Name:        "grep",
			Description: "Search file contents for a regex pattern",
			InputSchema: objectSchema(props{
				"pattern":      prop("string", "Regex pattern to search for"),
				"path":         prop("string", "Directory to search in (default: first allowed root)"),
				"file_pattern": prop("string", "File pattern (e.g. '*.py')"),
				"max_results":  prop("integer", "Maximum matches to return (default 50)"),
			}, "pattern"),
			Handler: ts.grep,
		},
		Tool{
			Name:        "list_directory",
			Description: "List directory contents",
			InputSchema: objectSchema(props{
				"path":      prop("string", "Directory path"),
				"recursive": prop("boolean", "List recursively (default false)"),
				"max_depth": prop("integer", "Max depth for recursive listing (default 2)"),
			}, "path"),
			Handler: ts.listDirectory,
		},

		// Deployment tools
		Tool{
			Name:        "deploy_service",
			Description: "Deploy a service (git pull + compose build + compose up)",
			InputSchema: objectSchema(props{
				"service":  prop("string", "Service to deploy"),
				"pull":     prop("boolean", "Git pull before build (default true)"),
				"no_cache": prop("boolean", "Build without cache (default true)"),
			}, "service"),
			Handler: ts.deployService,
		},
		Tool{
			Name:        "restart_service",
			Description: "Restart a managed service (requires confirm=true)",
			InputSchema: objectSchema(props{
				"service": prop("string", "Service to restart"),
				"confirm": prop("boolean", "Must be true to perform the restart"),
			}, "service"),
			Destructive: true,
			Handler:     ts.restartService,
		},
		Tool{
			Name:        "docker_status",
			Description: "Get status of all containers and managed services",
			InputSchema: objectSchema(props{}),
			Handler:     ts.dockerStatus,
		},

		// Git tools
		Tool{
			Name:        "git",
			Description: "Run a read-mostly git operation on a managed repository",
			InputSchema: objectSchema(props{
				"repo":    prop("string", "Repository name"),
				"command": prop("string", "Git command (status, log, diff, pull, branch, fetch)"),
			}, "repo", "command"),
			Handler: ts.gitOperation,
		},

		// Query tools
		Tool{
			Name:        "query_database",
			Description: "Execute a read-only graph query",
			InputSchema: objectSchema(props{
				"query":  prop("string", "Query to execute (read-only)"),
				"params": prop("object", "Query parameters"),
			}, "query"),
			Handler: ts.queryDatabase,
		},

		// System tools
		Tool{
			Name:        "system_health",
			Description: "Get system health (CPU load, memory, disk, services)",
			InputSchema: objectSchema(props{}),
			Handler:     ts.systemHealth,
		},
		Tool{
			Name:        "daily_stats",
			Description: "Get daily stats from the backend API",
			InputSchema: objectSchema(props{}),
			Handler:     ts.dailyStats,
		},

		// Utility tools
		Tool{
			Name:        "run_command",
			Description: "Run a command from the allowed prefix set",
			InputSchema: objectSchema(props{
				"command": prop("string", "Command to run (limited prefixes only)"),
			}, "command"),
			Handler: ts.runCommand,
		},

		// Destructive admin tools
		Tool{
			Name:        "trigger_reanalysis",
			Description: "Trigger reanalysis of a record via the backend API (requires confirm=true)",
			InputSchema: objectSchema(props{
				"record_id": prop("string", "Record identifier"),
				"confirm":   prop("boolean", "Must be true to trigger the reanalysis"),
			}, "record_id"),
			Destructive: true,
			Handler:     ts.triggerReanalysis,
		},
		Tool{
			Name:        "hide_record",
			Description: "Mark a record as hidden (requires confirm=true)",
			InputSchema: objectSchema(props{
				"record_id": prop("string", "Record identifier"),
				"confirm":   prop("boolean", "Must be true to hide the record"),
			}, "record_id"),
			Destructive: true,
			Handler:     ts.hideRecord,
		},
	)
}

type props map[string]any

func objectSchema(properties props, required ...string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{
		"type":        typ,
		"description": description,
	}
}

// firstAllowedRoot is the default search directory for the file tools.
func (ts *Toolset) firstAllowedRoot() string {
	return ts.cfg.Sandbox.AllowedPaths[0]
}
