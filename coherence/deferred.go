package coherence

import (
	"context"
	"sync"
	"time"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
)

const (
	defaultWorkers     = 2
	defaultQueue       = 1024
	defaultMaxAttempts = 5
	defaultBackoff     = 100 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

type DeferredConfig struct {
	Workers     int           // 0 => 2
	Queue       int           // 0 => 1024
	MaxAttempts int           // 0 => 5
	Backoff     time.Duration // first retry delay, doubled per attempt; 0 => 100ms
	Logger      menusync.Logger
	Hooks       menusync.Hooks
}

type task struct {
	kind catalog.Kind
	op   catalog.Op
	path catalog.Path
}

// Deferred runs invalidations after the caller has returned. Tasks are
// retried with exponential backoff up to MaxAttempts; there is no ordering
// between tasks. When the queue is full, or after Close, Submit runs the
// task inline instead of dropping it.
type Deferred struct {
	m           *Manager
	q           chan task
	maxAttempts int
	backoff     time.Duration
	log         menusync.Logger
	hooks       menusync.Hooks

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers sync.WaitGroup
	once    sync.Once
}

func NewDeferred(m *Manager, cfg DeferredConfig) *Deferred {
	d := &Deferred{
		m:           m,
		q:           make(chan task, menusync.Coalesce(cfg.Queue, defaultQueue)),
		maxAttempts: menusync.Coalesce(cfg.MaxAttempts, defaultMaxAttempts),
		backoff:     menusync.Coalesce(cfg.Backoff, defaultBackoff),
		log:         menusync.OrNop(cfg.Logger),
		hooks:       cfg.Hooks,
	}
	if d.hooks == nil {
		d.hooks = menusync.NopHooks{}
	}
	n := menusync.Coalesce(cfg.Workers, defaultWorkers)
	d.workers.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer d.workers.Done()
			for t := range d.q {
				d.run(t)
				d.pending.Done()
			}
		}()
	}
	return d
}

// Submit schedules the invalidation for (kind, op, p).
func (d *Deferred) Submit(kind catalog.Kind, op catalog.Op, p catalog.Path) {
	t := task{kind: kind, op: op, path: p}
	d.pending.Add(1)

	d.mu.RLock()
	if !d.closed {
		select {
		case d.q <- t:
			d.mu.RUnlock()
			return
		default:
		}
	}
	d.mu.RUnlock()

	d.log.Debug("deferred queue unavailable; invalidating inline", menusync.Fields{"entity": p.String()})
	d.run(t)
	d.pending.Done()
}

// Wait blocks until every submitted task has finished.
func (d *Deferred) Wait() { d.pending.Wait() }

// Close stops accepting queued work and drains what is queued. It returns
// ctx.Err() if ctx ends first; workers keep draining in the background.
func (d *Deferred) Close(ctx context.Context) error {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.q)
		d.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Deferred) run(t task) {
	delay := d.backoff
	for attempt := 1; ; attempt++ {
		err := d.m.Invalidate(context.Background(), t.kind, t.op, t.path)
		if err == nil {
			return
		}
		if attempt >= d.maxAttempts {
			d.log.Error("deferred invalidation gave up", menusync.Fields{
				"entity":   t.path.String(),
				"kind":     t.kind.String(),
				"op":       t.op.String(),
				"attempts": attempt,
				"err":      err,
			})
			return
		}
		d.hooks.DeferredRetry(attempt, err)
		time.Sleep(delay)
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}
