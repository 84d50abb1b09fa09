package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRecorder(t *testing.T) {
	t.Run("WritesJSONLines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.jsonl")
		recorder := NewRecorder(zaptest.NewLogger(t), path)

		first := recorder.Record("restart_service", map[string]any{"service": "apis", "confirm": true})
		second := recorder.Record("hide_record", map[string]any{"record_id": "r-1", "confirm": true})

		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		var entries []Entry
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var e Entry
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
			entries = append(entries, e)
		}
		require.NoError(t, scanner.Err())

		require.Len(t, entries, 2)
		assert.Equal(t, "restart_service", entries[0].Tool)
		assert.Equal(t, "apis", entries[0].Arguments["service"])
		assert.Equal(t, "hide_record", entries[1].Tool)
		assert.False(t, entries[0].Timestamp.IsZero())
	})

	t.Run("NoFileSinkWhenPathEmpty", func(t *testing.T) {
		recorder := NewRecorder(zaptest.NewLogger(t), "")
		entry := recorder.Record("restart_service", map[string]any{"service": "apis"})
		assert.NotEmpty(t, entry.ID)
	})
}
