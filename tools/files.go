package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

// maxFileContent caps read_file responses; larger content is truncated
// and flagged.
const maxFileContent = 100000

func (ts *Toolset) readFile(_ context.Context, args Args) (any, error) {
	requested, err := args.RequireString("path")
	if err != nil {
		return nil, err
	}

	path, err := ts.paths.Resolve(requested)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Message: fmt.Sprintf("not a file: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	content := string(data)
	if offset := args.Int("offset", 0); offset > 0 {
		lines := strings.SplitAfter(content, "\n")
		if offset >= len(lines) {
			content = ""
		} else {
			content = strings.Join(lines[offset:], "")
		}
	}
	if limit := args.Int("lines", 0); limit > 0 {
		lines := strings.SplitAfter(content, "\n")
		if limit < len(lines) {
			content = strings.Join(lines[:limit], "")
		}
	}

	truncated := len(content) > maxFileContent
	if truncated {
		content = content[:maxFileContent]
	}

	return map[string]any{
		"path":      path,
		"content":   content,
		"truncated": truncated,
		"size":      info.Size(),
	}, nil
}

func (ts *Toolset) searchFiles(ctx context.Context, args Args) (any, error) {
	pattern, err := args.RequireString("pattern")
	if err != nil {
		return nil, err
	}
	maxResults := args.Int("max_results", 100)

	path, err := ts.paths.Resolve(args.String("path", ts.firstAllowedRoot()))
	if err != nil {
		return nil, err
	}

	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"find", path, "-name", pattern, "-type", "f"},
		Timeout: ts.cfg.GetDefaultTimeout(),
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		files = append(files, line)
		if len(files) >= maxResults {
			break
		}
	}

	return map[string]any{
		"pattern": pattern,
		"path":    path,
		"files":   files,
		"count":   len(files),
	}, nil
}

func (ts *Toolset) grep(ctx context.Context, args Args) (any, error) {
	pattern, err := args.RequireString("pattern")
	if err != nil {
		return nil, err
	}
	maxResults := args.Int("max_results", 50)
	filePattern := args.String("file_pattern", "*")

	path, err := ts.paths.Resolve(args.String("path", ts.firstAllowedRoot()))
	if err != nil {
		return nil, err
	}

	// Argv invocation: the pattern is a single argument, never shell text.
	result, err := ts.runner.Run(ctx, sandbox.Command{
		Argv:    []string{"grep", "-rn", "--include=" + filePattern, "-E", pattern, path},
		Timeout: 60 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var matches []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" || !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNo, _ := strconv.Atoi(parts[1])
		matches = append(matches, map[string]any{
			"file":    parts[0],
			"line":    lineNo,
			"content": parts[2],
		})
		if len(matches) >= maxResults {
			break
		}
	}

	return map[string]any{
		"pattern":      pattern,
		"path":         path,
		"file_pattern": filePattern,
		"matches":      matches,
		"count":        len(matches),
	}, nil
}

func (ts *Toolset) listDirectory(ctx context.Context, args Args) (any, error) {
	requested, err := args.RequireString("path")
	if err != nil {
		return nil, err
	}

	path, err := ts.paths.Resolve(requested)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Message: fmt.Sprintf("directory not found: %s", path)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, &ValidationError{Message: fmt.Sprintf("not a directory: %s", path)}
	}

	var items []any
	if args.Bool("recursive", false) {
		maxDepth := args.Int("max_depth", 2)
		result, err := ts.runner.Run(ctx, sandbox.Command{
			Argv: []string{"find", path, "-maxdepth", strconv.Itoa(maxDepth),
				"(", "-type", "f", "-o", "-type", "d", ")"},
			Timeout: ts.cfg.GetDefaultTimeout(),
		})
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
			if line == "" {
				continue
			}
			items = append(items, line)
			if len(items) >= 500 {
				break
			}
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("error listing directory: %w", err)
		}
		for _, entry := range entries {
			itemType := "file"
			var size int64
			if entry.IsDir() {
				itemType = "dir"
			} else if fi, err := entry.Info(); err == nil {
				size = fi.Size()
			}
			items = append(items, map[string]any{
				"name": entry.Name(),
				"type": itemType,
				"size": size,
				"path": filepath.Join(path, entry.Name()),
			})
		}
	}

	return map[string]any{
		"path":  path,
		"items": items,
		"count": len(items),
	}, nil
}
