package logrus

import (
	"bytes"
	"strings"
	"testing"

	menusync "github.com/unkn0wn-root/menusync"
)

func TestLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("dropped", nil)
	l.Info("pass finished", menusync.Fields{"created": 3})

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, `"created":3`) || !strings.Contains(out, "pass finished") {
		t.Fatalf("output = %q", out)
	}
}
