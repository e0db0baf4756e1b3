package asynchook

import (
	"sync"
	"testing"

	menusync "github.com/unkn0wn-root/menusync"
)

type countingHooks struct {
	menusync.NopHooks
	mu    sync.Mutex
	block chan struct{}
	n     int
}

func (c *countingHooks) PassCompleted(menusync.PassStats) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.PassCompleted(menusync.PassStats{Created: i})
	}
	h.Close()
	if inner.n != 10 {
		t.Fatalf("delivered %d events, want 10", inner.n)
	}
	h.PassCompleted(menusync.PassStats{})
	if h.Dropped() != 1 {
		t.Fatalf("event after Close not dropped: %d", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)
	// One event may be in flight in the worker and one queued; the rest drop.
	for i := 0; i < 5; i++ {
		h.PassCompleted(menusync.PassStats{})
	}
	if h.Dropped() < 3 {
		t.Fatalf("dropped = %d, want >= 3", h.Dropped())
	}
	close(inner.block)
	h.Close()
}
