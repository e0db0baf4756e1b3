package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/discount"
	"github.com/unkn0wn-root/menusync/tablesource"
)

// Invalidator runs the cache plan for one write. coherence.Manager
// implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, kind catalog.Kind, op catalog.Op, p catalog.Path) error
}

type Config struct {
	Store   catalog.Store
	Source  tablesource.Source
	Overlay *discount.Overlay
	Cache   Invalidator
	Locker  Locker        // nil => in-process MutexLocker
	Matcher EntityMatcher // nil => TitleMatcher
	Logger  menusync.Logger
	Hooks   menusync.Hooks
}

type Engine struct {
	store   catalog.Store
	src     tablesource.Source
	overlay *discount.Overlay
	cache   Invalidator
	lock    Locker
	matcher EntityMatcher
	log     menusync.Logger
	hooks   menusync.Hooks
}

func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("reconcile: store is required")
	case cfg.Source == nil:
		return nil, fmt.Errorf("reconcile: source is required")
	case cfg.Overlay == nil:
		return nil, fmt.Errorf("reconcile: overlay is required")
	case cfg.Cache == nil:
		return nil, fmt.Errorf("reconcile: cache invalidator is required")
	}
	e := &Engine{
		store:   cfg.Store,
		src:     cfg.Source,
		overlay: cfg.Overlay,
		cache:   cfg.Cache,
		lock:    cfg.Locker,
		matcher: cfg.Matcher,
		log:     menusync.OrNop(cfg.Logger),
		hooks:   cfg.Hooks,
	}
	if e.lock == nil {
		e.lock = &MutexLocker{}
	}
	if e.matcher == nil {
		e.matcher = TitleMatcher{}
	}
	if e.hooks == nil {
		e.hooks = menusync.NopHooks{}
	}
	return e, nil
}

// Run performs one pass. It returns ErrPassInProgress without touching
// anything when another pass holds the lock, and aborts before any write
// when the table cannot be read or is malformed. Per-entity failures do not
// stop the pass; they are collected in the report. If ctx is cancelled
// mid-pass, Run stops before the next top-level step and returns the partial
// report with an error wrapping ctx.Err().
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	release, err := e.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("run-lock release failed", menusync.Fields{"err": err})
		}
	}()

	rep := &Report{Started: time.Now()}
	table, err := tablesource.Load(ctx, e.src)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load table: %w", err)
	}
	persisted, err := e.store.Nested(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: load catalog: %w", err)
	}
	plan := Diff(table, persisted, e.matcher)

	a := &applier{Engine: e, rep: rep}
	err = a.apply(ctx, plan)

	rep.Duration = time.Since(rep.Started)
	stats := rep.Stats()
	e.hooks.PassCompleted(stats)
	e.log.Info("reconciliation pass finished", menusync.Fields{
		"created":       stats.Created,
		"updated":       stats.Updated,
		"deleted":       stats.Deleted,
		"discounts_set": stats.DiscountsSet,
		"skipped":       stats.Skipped,
		"failed":        stats.Failed,
		"duration":      rep.Duration,
	})
	if err != nil {
		return rep, fmt.Errorf("reconcile: pass interrupted: %w", err)
	}
	return rep, nil
}

type applier struct {
	*Engine
	rep *Report
}

// apply runs the deletes, then the upserts. A cancelled ctx stops it between
// top-level steps; what was applied so far stays applied.
func (a *applier) apply(ctx context.Context, plan Plan) error {
	for _, op := range plan.Deletes {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.delete(ctx, op)
	}
	for _, step := range plan.Upserts {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.menu(ctx, step)
	}
	return nil
}

// fail records err. It reports true when the entity vanished, which callers
// treat as a skip of the entity and its subtree.
func (a *applier) fail(kind catalog.Kind, p catalog.Path, action string, err error) bool {
	if errors.Is(err, catalog.ErrNotFound) {
		a.rep.Skipped++
		a.hooks.EntitySkipped(kind.String(), p.ID(), err.Error())
		a.log.Info("entity vanished mid-pass; skipped", menusync.Fields{"kind": kind.String(), "path": p.String(), "action": action})
		return true
	}
	a.rep.Errors = append(a.rep.Errors, fmt.Errorf("%s %s %s: %w", action, kind, p, err))
	a.log.Error("reconcile step failed", menusync.Fields{"kind": kind.String(), "path": p.String(), "action": action, "err": err})
	return false
}

// invalidate never undoes the store write; a missed invalidation only
// leaves views stale until their TTL.
func (a *applier) invalidate(ctx context.Context, kind catalog.Kind, op catalog.Op, p catalog.Path) {
	a.rep.Invalidations++
	if err := a.cache.Invalidate(ctx, kind, op, p); err != nil {
		a.rep.Errors = append(a.rep.Errors, err)
		a.log.Warn("cache invalidation failed", menusync.Fields{"kind": kind.String(), "op": op.String(), "path": p.String(), "err": err})
	}
}

func (a *applier) delete(ctx context.Context, op DeleteOp) {
	var err error
	switch op.Kind {
	case catalog.KindMenu:
		err = a.store.DeleteMenu(ctx, op.Path.MenuID)
	case catalog.KindSubmenu:
		err = a.store.DeleteSubmenu(ctx, op.Path)
	case catalog.KindDish:
		err = a.store.DeleteDish(ctx, op.Path)
	}
	if err != nil {
		a.fail(op.Kind, op.Path, "delete", err)
		return
	}
	a.rep.Deleted.add(op.Kind)
	a.invalidate(ctx, op.Kind, catalog.OpDelete, op.Path)
}

func (a *applier) menu(ctx context.Context, step MenuStep) {
	id := step.ID
	switch step.Action {
	case ActionCreate:
		m, err := a.store.CreateMenu(ctx, catalog.MenuInput{Title: step.Table.Title, Description: step.Table.Description})
		if err != nil {
			a.fail(catalog.KindMenu, catalog.Path{}, "create", err)
			return
		}
		id = m.ID
		a.rep.Created.Menus++
		a.invalidate(ctx, catalog.KindMenu, catalog.OpCreate, catalog.MenuPath(id))
	case ActionUpdate:
		p := catalog.MenuPath(id)
		if _, err := a.store.UpdateMenu(ctx, id, step.Patch); err != nil {
			if a.fail(catalog.KindMenu, p, "update", err) {
				return
			}
		} else {
			a.rep.Updated.Menus++
			a.invalidate(ctx, catalog.KindMenu, catalog.OpUpdate, p)
		}
	}
	for _, s := range step.Submenus {
		if !a.submenu(ctx, id, s) {
			return
		}
	}
}

// submenu reports false when the parent menu vanished, so siblings are
// skipped too.
func (a *applier) submenu(ctx context.Context, menuID string, step SubmenuStep) bool {
	id := step.ID
	switch step.Action {
	case ActionCreate:
		sm, err := a.store.CreateSubmenu(ctx, menuID, catalog.SubmenuInput{
			Title:       step.Table.Title,
			Description: step.Table.Description,
		})
		if err != nil {
			return !a.fail(catalog.KindMenu, catalog.MenuPath(menuID), "create submenu in", err)
		}
		id = sm.ID
		a.rep.Created.Submenus++
		a.invalidate(ctx, catalog.KindSubmenu, catalog.OpCreate, catalog.SubmenuPath(menuID, id))
	case ActionUpdate:
		p := catalog.SubmenuPath(menuID, id)
		if _, err := a.store.UpdateSubmenu(ctx, p, step.Patch); err != nil {
			if a.fail(catalog.KindSubmenu, p, "update", err) {
				return a.parentAlive(ctx, catalog.MenuPath(menuID))
			}
		} else {
			a.rep.Updated.Submenus++
			a.invalidate(ctx, catalog.KindSubmenu, catalog.OpUpdate, p)
		}
	}
	sp := catalog.SubmenuPath(menuID, id)
	for _, d := range step.Dishes {
		if !a.dish(ctx, sp, d) {
			break
		}
	}
	return true
}

// dish reports false when the parent submenu vanished.
func (a *applier) dish(ctx context.Context, parent catalog.Path, step DishStep) bool {
	var p catalog.Path
	changed := false
	switch step.Action {
	case ActionCreate:
		d, err := a.store.CreateDish(ctx, parent, catalog.DishInput{
			Title:       step.Table.Title,
			Description: step.Table.Description,
			Price:       step.Table.Price,
		})
		if err != nil {
			return !a.fail(catalog.KindSubmenu, parent, "create dish in", err)
		}
		p = catalog.DishPath(parent.MenuID, parent.SubmenuID, d.ID)
		a.rep.Created.Dishes++
		// Overlay first, so the view filled after the invalidation already
		// carries the discount.
		a.discount(ctx, p, step.Table.Discount)
		a.invalidate(ctx, catalog.KindDish, catalog.OpCreate, p)
		return true
	case ActionUpdate:
		p = catalog.DishPath(parent.MenuID, parent.SubmenuID, step.ID)
		if _, err := a.store.UpdateDish(ctx, p, step.Patch); err != nil {
			if a.fail(catalog.KindDish, p, "update", err) {
				return a.parentAlive(ctx, parent)
			}
			return true
		}
		a.rep.Updated.Dishes++
		changed = true
	default:
		p = catalog.DishPath(parent.MenuID, parent.SubmenuID, step.ID)
	}
	if a.discount(ctx, p, step.Table.Discount) {
		changed = true
	}
	if changed {
		a.invalidate(ctx, catalog.KindDish, catalog.OpUpdate, p)
	}
	return true
}

// discount writes raw to the overlay when it is set and differs from the
// stored value. It reports whether the overlay changed. An empty cell leaves
// the overlay alone.
func (a *applier) discount(ctx context.Context, p catalog.Path, raw string) bool {
	if raw == "" {
		return false
	}
	d, err := discount.Normalize(raw)
	if err != nil {
		a.hooks.DiscountRejected(p.String(), raw, err)
		a.log.Warn("discount rejected", menusync.Fields{"path": p.String(), "raw": raw, "err": err})
		return false
	}
	cur, ok, err := a.overlay.Get(ctx, p)
	if err != nil {
		// An unreadable entry is overwritten with the table value.
		a.log.Warn("discount read failed", menusync.Fields{"path": p.String(), "err": err})
	}
	if ok && cur.Equal(d) {
		return false
	}
	if err := a.overlay.Set(ctx, p, d); err != nil {
		a.rep.Errors = append(a.rep.Errors, fmt.Errorf("set discount %s: %w", p, err))
		a.log.Warn("discount write failed", menusync.Fields{"path": p.String(), "err": err})
		return false
	}
	a.rep.DiscountsSet++
	return true
}

// parentAlive checks whether the scope at p still exists after a child step
// hit ErrNotFound, so the remaining siblings can be skipped at once.
func (a *applier) parentAlive(ctx context.Context, p catalog.Path) bool {
	var err error
	if p.SubmenuID == "" {
		_, err = a.store.GetMenu(ctx, p.MenuID)
	} else {
		_, err = a.store.GetSubmenu(ctx, p)
	}
	return err == nil
}
