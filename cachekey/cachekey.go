// Package cachekey builds the cache key strings for every cache family.
//
// Layout:
//
//	list                               all menus
//	list:<menu>                        submenus of a menu
//	list:<menu>:<submenu>              dishes of a submenu
//	obj:<menu>[:<submenu>[:<dish>]]    one entity
//	all_nested                         the whole catalog, discounts applied
//	discount:<menu>:<submenu>:<dish>   discount overlay (never expires)
package cachekey

import (
	"strings"

	"github.com/unkn0wn-root/menusync/catalog"
)

const (
	ListPrefix     = "list"
	ObjPrefix      = "obj"
	DiscountPrefix = "discount"
	allNested      = "all_nested"
	sep            = ":"
)

// List returns the listing key for the children of parent. The zero Path
// addresses the top-level menu listing.
func List(parent catalog.Path) string {
	return join(ListPrefix, parent)
}

// Obj returns the key of the entity at p.
func Obj(p catalog.Path) string {
	return join(ObjPrefix, p)
}

func AllNested() string { return allNested }

func Discount(p catalog.Path) string {
	return DiscountPrefix + sep + p.MenuID + sep + p.SubmenuID + sep + p.DishID
}

// Pattern matches every key containing id. Ids are random UUIDs, so an
// accidental substring hit on an unrelated key is accepted as negligible.
func Pattern(id string) string {
	return "*" + id + "*"
}

func join(prefix string, p catalog.Path) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range []string{p.MenuID, p.SubmenuID, p.DishID} {
		if id == "" {
			break
		}
		b.WriteString(sep)
		b.WriteString(id)
	}
	return b.String()
}
