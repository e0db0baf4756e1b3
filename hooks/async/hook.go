// Package asynchook runs menusync.Hooks on a bounded worker pool so slow
// sinks never stall a reconciliation pass. Events are dropped when the
// queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SkipEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	engine, _ := reconcile.New(reconcile.Config{..., Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	menusync "github.com/unkn0wn-root/menusync"
)

type Hooks struct {
	inner   menusync.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ menusync.Hooks = (*Hooks)(nil)

func New(inner menusync.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events. Events fired after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on a closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) InvalidationFailed(k string, err error) {
	h.try(func() { h.inner.InvalidationFailed(k, err) })
}
func (h *Hooks) EntitySkipped(kind, id, reason string) {
	h.try(func() { h.inner.EntitySkipped(kind, id, reason) })
}
func (h *Hooks) DiscountRejected(p, raw string, err error) {
	h.try(func() { h.inner.DiscountRejected(p, raw, err) })
}
func (h *Hooks) DeferredRetry(attempt int, err error) {
	h.try(func() { h.inner.DeferredRetry(attempt, err) })
}
func (h *Hooks) PassCompleted(s menusync.PassStats) { h.try(func() { h.inner.PassCompleted(s) }) }
