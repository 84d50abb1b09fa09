package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/opsgate/audit"
)

// UnknownToolError reports a tool name absent from the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ValidationError reports arguments rejected before any side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a file or directory a handler could not find
// after its path passed validation.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Dispatcher is the single choke point between the transport surfaces and
// the tool handlers. Both HTTP surfaces and the stdio transport dispatch
// through it, so all of them enforce the same argument checking,
// confirmation gating, and error conversion.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
	audit    *audit.Recorder
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(registry *Registry, logger *zap.Logger, recorder *audit.Recorder) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger, audit: recorder}
}

// Registry returns the catalog the dispatcher serves
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves name in the registry, validates args against the
// declared schema, applies confirmation gating for destructive tools, and
// invokes the handler. A destructive tool called without confirm=true
// returns a benign result describing the requirement; the handler is
// never invoked and no process is spawned. Handler panics are converted
// to errors rather than reaching the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Args) (result any, err error) {
	tool, ok := d.registry.Get(name)
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	if args == nil {
		args = Args{}
	}

	if err := tool.validate(args); err != nil {
		return nil, err
	}

	if tool.Destructive && !args.Bool("confirm", false) {
		d.logger.Info("destructive tool blocked pending confirmation",
			zap.String("tool", name))
		return map[string]any{
			"error": fmt.Sprintf("Must set confirm=true to run %s", name),
		}, nil
	}

	if tool.Destructive {
		d.audit.Record(name, args)
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("tool handler panicked",
				zap.String("tool", name),
				zap.Any("panic", rec))
			result = nil
			err = fmt.Errorf("internal error in tool %s", name)
		}
	}()

	d.logger.Info("dispatching tool", zap.String("tool", name))

	result, err = tool.Handler(ctx, args)
	if err != nil {
		d.logger.Warn("tool returned error",
			zap.String("tool", name),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}
