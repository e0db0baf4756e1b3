// Package reconcile brings the persisted catalog in line with the external
// table. A pass loads the table and the persisted tree once, computes a plan
// with Diff and applies it in two phases: all deletes first, then creates and
// updates. Entities are matched by title, so a renamed entity is deleted and
// recreated under a new id.
package reconcile

import (
	"github.com/unkn0wn-root/menusync/catalog"
)

// EntityMatcher picks the persisted candidate a table entity corresponds to.
// It returns the index into candidates or -1.
type EntityMatcher interface {
	Match(title string, candidates []string) int
}

// TitleMatcher matches on exact, case-sensitive title equality. The first
// match wins.
type TitleMatcher struct{}

func (TitleMatcher) Match(title string, candidates []string) int {
	for i, c := range candidates {
		if c == title {
			return i
		}
	}
	return -1
}

type Action int

const (
	ActionKeep Action = iota
	ActionCreate
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	default:
		return "keep"
	}
}

// DeleteOp removes a persisted entity and, through the store, its subtree.
type DeleteOp struct {
	Kind  catalog.Kind
	Path  catalog.Path
	Title string
}

type MenuStep struct {
	Action   Action
	ID       string // set unless Action is ActionCreate
	Table    catalog.TableMenu
	Patch    catalog.MenuPatch
	Submenus []SubmenuStep
}

type SubmenuStep struct {
	Action Action
	ID     string
	Table  catalog.TableSubmenu
	Patch  catalog.SubmenuPatch
	Dishes []DishStep
}

// DishStep is also emitted with ActionKeep: the discount overlay is compared
// while applying, not here.
type DishStep struct {
	Action Action
	ID     string
	Table  catalog.TableDish
	Patch  catalog.DishPatch
}

// Plan is the outcome of Diff. Deletes run to completion before Upserts.
type Plan struct {
	Deletes []DeleteOp
	Upserts []MenuStep
}

// Empty reports whether applying the plan would touch the store. Discount
// changes are not visible here.
func (p Plan) Empty() bool {
	if len(p.Deletes) > 0 {
		return false
	}
	for _, m := range p.Upserts {
		if m.Action != ActionKeep {
			return false
		}
		for _, s := range m.Submenus {
			if s.Action != ActionKeep {
				return false
			}
			for _, d := range s.Dishes {
				if d.Action != ActionKeep {
					return false
				}
			}
		}
	}
	return true
}

// Diff compares the table with the persisted tree. It is pure.
//
// Deletes: persisted menus without a table match; persisted submenus of
// retained menus without a match in the matched table menu; the same for
// dishes. Descendants of a deleted entity are not listed.
//
// Upserts: every table entity, matched against the persisted children of its
// matched parent. Titles are never changed. Children of a created parent are
// all creates.
func Diff(table []catalog.TableMenu, persisted []catalog.MenuNode, m EntityMatcher) Plan {
	if m == nil {
		m = TitleMatcher{}
	}
	return Plan{
		Deletes: diffDeletes(table, persisted, m),
		Upserts: diffUpserts(table, persisted, m),
	}
}

func diffDeletes(table []catalog.TableMenu, persisted []catalog.MenuNode, m EntityMatcher) []DeleteOp {
	var ops []DeleteOp
	tMenus := titles(table, func(t catalog.TableMenu) string { return t.Title })
	for _, pm := range persisted {
		ti := m.Match(pm.Title, tMenus)
		if ti < 0 {
			ops = append(ops, DeleteOp{Kind: catalog.KindMenu, Path: catalog.MenuPath(pm.ID), Title: pm.Title})
			continue
		}
		tm := table[ti]
		tSubs := titles(tm.Submenus, func(t catalog.TableSubmenu) string { return t.Title })
		for _, ps := range pm.Submenus {
			si := m.Match(ps.Title, tSubs)
			if si < 0 {
				ops = append(ops, DeleteOp{Kind: catalog.KindSubmenu, Path: catalog.SubmenuPath(pm.ID, ps.ID), Title: ps.Title})
				continue
			}
			tDishes := titles(tm.Submenus[si].Dishes, func(t catalog.TableDish) string { return t.Title })
			for _, pd := range ps.Dishes {
				if m.Match(pd.Title, tDishes) < 0 {
					ops = append(ops, DeleteOp{Kind: catalog.KindDish, Path: catalog.DishPath(pm.ID, ps.ID, pd.ID), Title: pd.Title})
				}
			}
		}
	}
	return ops
}

func diffUpserts(table []catalog.TableMenu, persisted []catalog.MenuNode, m EntityMatcher) []MenuStep {
	pTitles := titles(persisted, func(n catalog.MenuNode) string { return n.Title })
	steps := make([]MenuStep, 0, len(table))
	for _, tm := range table {
		i := m.Match(tm.Title, pTitles)
		if i < 0 {
			steps = append(steps, MenuStep{Action: ActionCreate, Table: tm, Submenus: diffSubmenus(tm.Submenus, nil, m)})
			continue
		}
		pm := persisted[i]
		step := MenuStep{Action: ActionKeep, ID: pm.ID, Table: tm}
		if tm.Description != pm.Description {
			step.Action = ActionUpdate
			step.Patch.Description = ptr(tm.Description)
		}
		step.Submenus = diffSubmenus(tm.Submenus, pm.Submenus, m)
		steps = append(steps, step)
	}
	return steps
}

// diffSubmenus with a nil persisted slice yields creates only.
func diffSubmenus(table []catalog.TableSubmenu, persisted []catalog.SubmenuNode, m EntityMatcher) []SubmenuStep {
	pTitles := titles(persisted, func(n catalog.SubmenuNode) string { return n.Title })
	steps := make([]SubmenuStep, 0, len(table))
	for _, ts := range table {
		i := m.Match(ts.Title, pTitles)
		if i < 0 {
			steps = append(steps, SubmenuStep{Action: ActionCreate, Table: ts, Dishes: diffDishes(ts.Dishes, nil, m)})
			continue
		}
		ps := persisted[i]
		step := SubmenuStep{Action: ActionKeep, ID: ps.ID, Table: ts}
		if ts.Description != ps.Description {
			step.Action = ActionUpdate
			step.Patch.Description = ptr(ts.Description)
		}
		step.Dishes = diffDishes(ts.Dishes, ps.Dishes, m)
		steps = append(steps, step)
	}
	return steps
}

func diffDishes(table []catalog.TableDish, persisted []catalog.Dish, m EntityMatcher) []DishStep {
	pTitles := titles(persisted, func(d catalog.Dish) string { return d.Title })
	steps := make([]DishStep, 0, len(table))
	for _, td := range table {
		i := m.Match(td.Title, pTitles)
		if i < 0 {
			steps = append(steps, DishStep{Action: ActionCreate, Table: td})
			continue
		}
		pd := persisted[i]
		step := DishStep{Action: ActionKeep, ID: pd.ID, Table: td}
		if td.Description != pd.Description {
			step.Patch.Description = ptr(td.Description)
		}
		if !td.Price.Equal(pd.Price) {
			step.Patch.Price = ptr(td.Price)
		}
		if !step.Patch.Empty() {
			step.Action = ActionUpdate
		}
		steps = append(steps, step)
	}
	return steps
}

func titles[T any](xs []T, title func(T) string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = title(x)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
