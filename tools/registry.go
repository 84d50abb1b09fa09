package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Handler is the bound implementation of one tool.
type Handler func(ctx context.Context, args Args) (any, error)

// Tool pairs a declared input schema with a typed handler. Destructive
// tools additionally require confirm=true before the handler runs.
type Tool struct {
	Name        string
	Description string
	InputSchema mcp.ToolInputSchema
	Destructive bool
	Handler     Handler

	compiled *jsonschema.Schema
}

// Registry is the immutable catalog of tools, built once at startup.
// Enumeration preserves registration order so tools/list is stable.
type Registry struct {
	order  []string
	byName map[string]*Tool
}

// NewRegistry compiles every tool's schema and verifies that each
// declared tool has a unique name and a bound handler. Failure here is a
// programmer error surfaced at load time, before the server accepts
// requests.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Tool, len(tools))}

	for i := range tools {
		t := tools[i]
		if t.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", t.Name)
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name)
		}

		compiled, err := compileSchema(t.Name, t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		t.compiled = compiled

		r.byName[t.Name] = &t
		r.order = append(r.order, t.Name)
	}

	return r, nil
}

// Get returns the tool registered under name
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns all tools in registration order
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the tool names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// MCPTools converts the catalog to the wire representation used by
// tools/list and by the stdio transport.
func (r *Registry) MCPTools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		out = append(out, mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

// validate checks an argument map against the tool's compiled schema.
func (t *Tool) validate(args Args) error {
	if err := t.compiled.Validate(map[string]any(args)); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid arguments for %s: %v", t.Name, err)}
	}
	return nil
}

func compileSchema(name string, schema mcp.ToolInputSchema) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := compiler.AddResource(url, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile input schema: %w", err)
	}
	return compiled, nil
}
