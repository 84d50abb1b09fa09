// Package audit records an append-only trail of destructive tool
// invocations. Every confirmed restart, reanalysis trigger, or record
// hide produces one entry before the operation runs, so the trail shows
// attempts as well as completions.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/opsgate/config"
)

// Entry is one audit record, serialized as a JSON line in the file sink.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Recorder writes audit entries to the logger and, when configured, to a
// JSONL file. The file is the only shared mutable sink in the process;
// the mutex serializes concurrent appends.
type Recorder struct {
	logger *zap.Logger
	path   string

	mu sync.Mutex
}

// NewFromConfig creates a Recorder using the configured audit file path
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Recorder {
	return NewRecorder(logger, cfg.Audit.Path)
}

// NewRecorder creates a Recorder. An empty path disables the file sink.
func NewRecorder(logger *zap.Logger, path string) *Recorder {
	return &Recorder{logger: logger, path: path}
}

// Record writes one entry for a destructive tool invocation and returns
// it. A failing file sink is logged, never propagated: the audit trail
// must not block the operation it describes.
func (r *Recorder) Record(tool string, args map[string]any) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Tool:      tool,
		Arguments: args,
	}

	r.logger.Info("destructive tool invoked",
		zap.String("audit_id", entry.ID),
		zap.String("tool", tool),
		zap.Any("arguments", args))

	if r.path == "" {
		return entry
	}

	line, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("failed to marshal audit entry", zap.Error(err))
		return entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		r.logger.Error("failed to open audit file", zap.String("path", r.path), zap.Error(err))
		return entry
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		r.logger.Error("failed to append audit entry", zap.String("path", r.path), zap.Error(err))
	}

	return entry
}
