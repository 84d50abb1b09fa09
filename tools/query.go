package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/isdmx/opsgate/sandbox"
)

// runQuery hands a query and its parameters to the fixed in-container
// runner as one JSON-serialized argv element. The query text is never
// concatenated into a script or interpreted by a shell; the runner on the
// other side decodes the payload and binds params through the driver.
func (ts *Toolset) runQuery(ctx context.Context, query string, params map[string]any) (sandbox.ExecResult, error) {
	payload, err := json.Marshal(map[string]any{
		"query":  query,
		"params": params,
	})
	if err != nil {
		return sandbox.ExecResult{}, fmt.Errorf("failed to encode query payload: %w", err)
	}

	argv := append(append([]string{}, ts.cfg.Backend.QueryRunner...), string(payload))
	return ts.runner.Run(ctx, sandbox.Command{Argv: argv, Timeout: 30 * time.Second})
}

func (ts *Toolset) queryDatabase(ctx context.Context, args Args) (any, error) {
	query, err := args.RequireString("query")
	if err != nil {
		return nil, err
	}

	if kw, found := sandbox.QueryMutationKeyword(query); found {
		return nil, &ValidationError{Message: fmt.Sprintf(
			"write queries not allowed (found %s), use read-only queries", kw)}
	}

	result, err := ts.runQuery(ctx, query, args.Map("params"))
	if err != nil {
		return nil, err
	}

	if !result.Success {
		return map[string]any{
			"query":   query,
			"error":   result.Stderr,
			"success": false,
		}, nil
	}

	var rows any
	if err := json.Unmarshal([]byte(result.Stdout), &rows); err != nil {
		return map[string]any{
			"query":      query,
			"raw_output": result.Stdout,
			"success":    true,
		}, nil
	}

	return map[string]any{
		"query":   query,
		"results": rows,
		"success": true,
	}, nil
}

// hideRecord is the sanctioned mutation path: a fixed query template with
// the record id bound as a parameter. It does not pass through the
// mutation guard because the template, not the caller, decides what is
// written.
func (ts *Toolset) hideRecord(ctx context.Context, args Args) (any, error) {
	recordID, err := args.RequireString("record_id")
	if err != nil {
		return nil, err
	}

	const template = "MATCH (r:Record {id: $id}) SET r.hidden = true RETURN r.id AS id"

	result, err := ts.runQuery(ctx, template, map[string]any{"id": recordID})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"record_id": recordID,
		"hidden":    result.Success,
		"output":    result.Stdout,
		"error":     result.Stderr,
		"success":   result.Success,
	}, nil
}
