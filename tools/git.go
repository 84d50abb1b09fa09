package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

// allowedGitCommands is the git-subcommand allowlist; anything else is
// rejected before a process is spawned.
var allowedGitCommands = map[string]bool{
	"status": true,
	"log":    true,
	"diff":   true,
	"pull":   true,
	"branch": true,
	"fetch":  true,
}

func (ts *Toolset) gitOperation(ctx context.Context, args Args) (any, error) {
	repo, err := args.RequireString("repo")
	if err != nil {
		return nil, err
	}
	command, err := args.RequireString("command")
	if err != nil {
		return nil, err
	}

	repoPath, ok := ts.cfg.RepoPath(repo)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"unknown repo: %s, allowed: %s", repo, strings.Join(repoNames(ts), ", "))}
	}

	fields := strings.Fields(command)
	if len(fields) == 0 || !allowedGitCommands[fields[0]] {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"command not allowed: %q, allowed: %s", command, strings.Join(gitCommandNames(), ", "))}
	}

	// Fixed argument vectors; no shell ever sees the input.
	var argv []string
	switch fields[0] {
	case "log":
		argv = []string{"git", "-C", repoPath, "log", "--oneline", "-20"}
	case "diff":
		argv = []string{"git", "-C", repoPath, "diff", "HEAD~1"}
	default:
		argv = append([]string{"git", "-C", repoPath}, fields...)
	}

	result, err := ts.runner.Run(ctx, sandbox.Command{Argv: argv, Timeout: 60 * time.Second})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"repo":    repo,
		"command": command,
		"success": result.Success,
		"output":  result.Stdout + result.Stderr,
	}, nil
}

func repoNames(ts *Toolset) []string {
	names := make([]string, 0, len(ts.cfg.Sandbox.Repos))
	for name := range ts.cfg.Sandbox.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func gitCommandNames() []string {
	names := make([]string, 0, len(allowedGitCommands))
	for name := range allowedGitCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
