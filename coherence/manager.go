package coherence

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
)

// Invalidator is the cache capability the manager needs. views.Backend
// implements it: Invalidate bumps the key's generation before deleting, so a
// fill racing the write cannot resurrect the old view.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
	DelPattern(ctx context.Context, pattern string) (int, error)
}

type Manager struct {
	cache Invalidator
	log   menusync.Logger
	hooks menusync.Hooks
}

func NewManager(cache Invalidator, log menusync.Logger, hooks menusync.Hooks) *Manager {
	if hooks == nil {
		hooks = menusync.NopHooks{}
	}
	return &Manager{cache: cache, log: menusync.OrNop(log), hooks: hooks}
}

// Invalidate runs the plan for (kind, op, p). Every key and pattern is
// attempted; failures come back as *menusync.InvalidateError.
func (m *Manager) Invalidate(ctx context.Context, kind catalog.Kind, op catalog.Op, p catalog.Path) error {
	plan := PlanFor(kind, op, p)
	ierr := &menusync.InvalidateError{Entity: fmt.Sprintf("%s %s %s", kind, op, p)}

	for _, k := range plan.Keys {
		if err := m.cache.Invalidate(ctx, k); err != nil {
			if ierr.Keys == nil {
				ierr.Keys = make(map[string]error)
			}
			ierr.Keys[k] = err
			m.hooks.InvalidationFailed(k, err)
		}
	}
	for _, pat := range plan.Patterns {
		n, err := m.cache.DelPattern(ctx, pat)
		if err != nil {
			if ierr.Patterns == nil {
				ierr.Patterns = make(map[string]error)
			}
			ierr.Patterns[pat] = err
			m.hooks.InvalidationFailed(pat, err)
			continue
		}
		m.log.Debug("pattern cleared", menusync.Fields{"pattern": pat, "deleted": n})
	}

	if ierr.Empty() {
		return nil
	}
	m.log.Warn("invalidation incomplete", menusync.Fields{
		"entity": ierr.Entity,
		"err":    multierror.Append(nil, ierr.Unwrap()...).ErrorOrNil(),
	})
	return ierr
}
