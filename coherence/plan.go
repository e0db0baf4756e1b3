// Package coherence keeps the derived cache families consistent with the
// persisted catalog. Every write names its entity kind, operation and path;
// Plan maps that to the exact keys and patterns to clear.
package coherence

import (
	"github.com/unkn0wn-root/menusync/cachekey"
	"github.com/unkn0wn-root/menusync/catalog"
)

// Plan is the set of cache operations for one write. Keys are cleared
// exactly; Patterns go through a key-space scan.
type Plan struct {
	Keys     []string
	Patterns []string
}

// PlanFor returns the invalidation plan for op on the entity at p.
// Creates and deletes widen to ancestor views because counts change there;
// updates touch only the entity's own view and its sibling listing.
// Deletes also purge every key containing the id, which covers descendant
// views and orphaned discount entries. Ids are random UUIDs, so a substring
// hit on an unrelated key is an accepted imprecision.
func PlanFor(kind catalog.Kind, op catalog.Op, p catalog.Path) Plan {
	m := catalog.MenuPath(p.MenuID)
	s := catalog.SubmenuPath(p.MenuID, p.SubmenuID)
	all := cachekey.AllNested()
	root := cachekey.List(catalog.Path{})

	switch kind {
	case catalog.KindMenu:
		switch op {
		case catalog.OpCreate:
			return Plan{Keys: []string{all, root}}
		case catalog.OpUpdate:
			return Plan{Keys: []string{all, root, cachekey.Obj(m)}}
		case catalog.OpDelete:
			return Plan{Keys: []string{all, root}, Patterns: []string{cachekey.Pattern(p.MenuID)}}
		}
	case catalog.KindSubmenu:
		switch op {
		case catalog.OpCreate:
			return Plan{Keys: []string{all, root, cachekey.List(m), cachekey.Obj(m)}}
		case catalog.OpUpdate:
			return Plan{Keys: []string{all, cachekey.List(m), cachekey.Obj(s)}}
		case catalog.OpDelete:
			return Plan{
				Keys:     []string{all, root, cachekey.List(m), cachekey.Obj(m)},
				Patterns: []string{cachekey.Pattern(p.SubmenuID)},
			}
		}
	case catalog.KindDish:
		ancestors := []string{all, root, cachekey.List(m), cachekey.List(s), cachekey.Obj(m), cachekey.Obj(s)}
		switch op {
		case catalog.OpCreate:
			return Plan{Keys: ancestors}
		case catalog.OpUpdate:
			return Plan{Keys: []string{all, cachekey.List(s), cachekey.Obj(p)}}
		case catalog.OpDelete:
			return Plan{Keys: ancestors, Patterns: []string{cachekey.Pattern(p.DishID)}}
		}
	}
	return Plan{}
}
