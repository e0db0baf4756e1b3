package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	menusync "github.com/unkn0wn-root/menusync"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestKeysAreRedacted(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.InvalidationFailed("obj:secret-menu", errors.New("down"))
	out := buf.String()
	if strings.Contains(out, "secret-menu") {
		t.Fatalf("raw key leaked: %q", out)
	}
	if !strings.Contains(out, "menusync.invalidation_failed") {
		t.Fatalf("missing event: %q", out)
	}
}

func TestSkipSampling(t *testing.T) {
	h, buf := newBuffered(Options{SkipEvery: 3})
	for i := 0; i < 9; i++ {
		h.EntitySkipped("dish", "d", "gone")
	}
	if n := strings.Count(buf.String(), "menusync.entity_skipped"); n != 3 {
		t.Fatalf("logged %d skips, want 3", n)
	}
}

func TestPassCompletedLevel(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.PassCompleted(menusync.PassStats{Created: 1, Failed: 2})
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("failed pass not logged at warn: %q", buf.String())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.PassCompleted(menusync.PassStats{})
	h.DiscountRejected("m/s/d", "abc", errors.New("bad"))
}
