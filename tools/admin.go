package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

func (ts *Toolset) runCommand(ctx context.Context, args Args) (any, error) {
	command, err := args.RequireString("command")
	if err != nil {
		return nil, err
	}

	if !ts.commands.Allowed(command) {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"command not allowed, must start with one of: %s",
			strings.Join(ts.commands.Prefixes(), ", "))}
	}

	result, err := ts.runner.Run(ctx, sandbox.Command{
		Shell:   command,
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"command": command,
		"success": result.Success,
		"stdout":  result.Stdout,
		"stderr":  result.Stderr,
	}, nil
}

func (ts *Toolset) triggerReanalysis(ctx context.Context, args Args) (any, error) {
	recordID, err := args.RequireString("record_id")
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/records/%s/reanalyze", ts.cfg.Backend.BaseURL, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reanalysis request: %w", err)
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		return map[string]any{
			"record_id": recordID,
			"success":   false,
			"error":     err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxFileContent))

	return map[string]any{
		"record_id": recordID,
		"success":   resp.StatusCode < 300,
		"status":    resp.StatusCode,
		"response":  string(body),
	}, nil
}
