package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("info", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("hidden")
	log.Info("prediction", zap.Float64("mean_bp", 93.5))
	log.Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["msg"] != "prediction" || entry["mean_bp"] != 93.5 {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("missing time key: %v", entry)
	}
}

func TestNewWithWriterInvalidLevel(t *testing.T) {
	if _, err := NewWithWriter("loud", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
