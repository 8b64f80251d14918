package testutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogBuffer collects JSON log records written by a test logger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// NewLogger returns a debug-level JSON logger writing into the returned buffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// Records decodes every record written so far.
func (b *LogBuffer) Records(t *testing.T) []map[string]any {
	t.Helper()

	b.mu.Lock()
	raw := b.buf.String()
	b.mu.Unlock()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode log record %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

// AtLevel returns the records logged at level ("DEBUG", "INFO", "WARN", "ERROR").
func (b *LogBuffer) AtLevel(t *testing.T, level string) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, rec := range b.Records(t) {
		if rec["level"] == level {
			out = append(out, rec)
		}
	}
	return out
}
