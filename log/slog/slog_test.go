package slog

import (
	"bytes"
	"encoding/json"
	"testing"

	menusync "github.com/unkn0wn-root/menusync"
)

func TestLevelFilteringAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("dropped", nil)
	l.Warn("kept", menusync.Fields{"key": "list"})

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "kept" || rec["key"] != "list" {
		t.Fatalf("record = %v", rec)
	}
	if _, err := New(&buf, "loud"); err == nil {
		t.Fatalf("unknown level accepted")
	}
}
