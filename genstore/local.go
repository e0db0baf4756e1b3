package genstore

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	gen       uint64
	updatedAt time.Time
}

// Local keeps generations in-process. Correct only when every writer shares
// the process; use Redis when several replicas invalidate the same cache.
type Local struct {
	mu   sync.RWMutex
	gens map[string]localEntry

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ GenStore = (*Local)(nil)

// NewLocal starts a cleanup loop when both cleanupInterval and retention are positive.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: make(map[string]localEntry)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Local) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[key]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *Local) Bump(_ context.Context, keys ...string) ([]uint64, error) {
	now := time.Now()
	out := make([]uint64, len(keys))
	s.mu.Lock()
	for i, k := range keys {
		e := s.gens[k]
		e.gen++
		e.updatedAt = now
		s.gens[k] = e
		out[i] = e.gen
	}
	s.mu.Unlock()
	return out, nil
}

// Cleanup drops entries not bumped within retention. A dropped key reads as
// generation 0 again; any cached entry framed with a higher generation then
// fails validation and self-heals.
func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)
	s.mu.Lock()
	for k, e := range s.gens {
		if e.updatedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			s.ticker.Stop()
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
