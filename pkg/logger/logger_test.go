package logx

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Service: "paper-supply"})

	logger.Debug().Msg("hidden")
	logger.Warn().Str("worker", "inventory").Msg("stock check failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "paper-supply" || line["worker"] != "inventory" || line["level"] != "warn" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Debug: true})

	logger.Debug().Msg("visible")
	if buf.Len() == 0 {
		t.Fatal("expected debug line to be written")
	}
}
