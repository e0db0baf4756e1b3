// Package memstore is an in-process catalog.Store. Ids are random UUIDs and
// listings keep insertion order.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menusync/catalog"
)

type Store struct {
	mu        sync.RWMutex
	menus     []*catalog.Menu
	submenus  []*catalog.Submenu
	dishes    []*catalog.Dish
	newID     func() string
	mutations int
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{newID: func() string { return uuid.NewString() }}
}

// Mutations returns the number of successful create/update/delete calls so far.
func (s *Store) Mutations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mutations
}

func (s *Store) Nested(_ context.Context) ([]catalog.MenuNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.MenuNode, 0, len(s.menus))
	for _, m := range s.menus {
		node := catalog.MenuNode{Menu: *m, Submenus: []catalog.SubmenuNode{}}
		for _, sm := range s.submenus {
			if sm.MenuID != m.ID {
				continue
			}
			sn := catalog.SubmenuNode{Submenu: *sm, Dishes: []catalog.Dish{}}
			for _, d := range s.dishes {
				if d.SubmenuID == sm.ID {
					sn.Dishes = append(sn.Dishes, *d)
				}
			}
			node.Submenus = append(node.Submenus, sn)
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *Store) ListMenus(_ context.Context) ([]catalog.MenuSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.MenuSummary, 0, len(s.menus))
	for _, m := range s.menus {
		out = append(out, s.menuSummary(m))
	}
	return out, nil
}

func (s *Store) GetMenu(_ context.Context, menuID string) (catalog.MenuSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.findMenu(menuID)
	if m == nil {
		return catalog.MenuSummary{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	return s.menuSummary(m), nil
}

func (s *Store) CreateMenu(_ context.Context, in catalog.MenuInput) (catalog.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &catalog.Menu{ID: s.newID(), Title: in.Title, Description: in.Description}
	s.menus = append(s.menus, m)
	s.mutations++
	return *m, nil
}

func (s *Store) UpdateMenu(_ context.Context, menuID string, patch catalog.MenuPatch) (catalog.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMenu(menuID)
	if m == nil {
		return catalog.Menu{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	s.mutations++
	return *m, nil
}

func (s *Store) DeleteMenu(_ context.Context, menuID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findMenu(menuID) == nil {
		return catalog.NotFound(catalog.KindMenu, menuID)
	}
	s.menus = remove(s.menus, func(m *catalog.Menu) bool { return m.ID == menuID })
	var children []string
	for _, sm := range s.submenus {
		if sm.MenuID == menuID {
			children = append(children, sm.ID)
		}
	}
	for _, id := range children {
		s.dropSubmenu(id)
	}
	s.mutations++
	return nil
}

func (s *Store) ListSubmenus(_ context.Context, menuID string) ([]catalog.SubmenuSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.findMenu(menuID) == nil {
		return nil, catalog.NotFound(catalog.KindMenu, menuID)
	}
	out := []catalog.SubmenuSummary{}
	for _, sm := range s.submenus {
		if sm.MenuID == menuID {
			out = append(out, s.submenuSummary(sm))
		}
	}
	return out, nil
}

func (s *Store) GetSubmenu(_ context.Context, p catalog.Path) (catalog.SubmenuSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return catalog.SubmenuSummary{}, err
	}
	return s.submenuSummary(sm), nil
}

func (s *Store) CreateSubmenu(_ context.Context, menuID string, in catalog.SubmenuInput) (catalog.Submenu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findMenu(menuID) == nil {
		return catalog.Submenu{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	sm := &catalog.Submenu{ID: s.newID(), MenuID: menuID, Title: in.Title, Description: in.Description}
	s.submenus = append(s.submenus, sm)
	s.mutations++
	return *sm, nil
}

func (s *Store) UpdateSubmenu(_ context.Context, p catalog.Path, patch catalog.SubmenuPatch) (catalog.Submenu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return catalog.Submenu{}, err
	}
	if patch.Title != nil {
		sm.Title = *patch.Title
	}
	if patch.Description != nil {
		sm.Description = *patch.Description
	}
	s.mutations++
	return *sm, nil
}

func (s *Store) DeleteSubmenu(_ context.Context, p catalog.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return err
	}
	s.dropSubmenu(sm.ID)
	s.mutations++
	return nil
}

func (s *Store) ListDishes(_ context.Context, p catalog.Path) ([]catalog.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return nil, err
	}
	out := []catalog.Dish{}
	for _, d := range s.dishes {
		if d.SubmenuID == sm.ID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *Store) GetDish(_ context.Context, p catalog.Path) (catalog.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.resolveDish(p)
	if err != nil {
		return catalog.Dish{}, err
	}
	return *d, nil
}

func (s *Store) CreateDish(_ context.Context, p catalog.Path, in catalog.DishInput) (catalog.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return catalog.Dish{}, err
	}
	d := &catalog.Dish{
		ID:          s.newID(),
		SubmenuID:   sm.ID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
	}
	s.dishes = append(s.dishes, d)
	s.mutations++
	return *d, nil
}

func (s *Store) UpdateDish(_ context.Context, p catalog.Path, patch catalog.DishPatch) (catalog.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.resolveDish(p)
	if err != nil {
		return catalog.Dish{}, err
	}
	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Price != nil {
		d.Price = *patch.Price
	}
	s.mutations++
	return *d, nil
}

func (s *Store) DeleteDish(_ context.Context, p catalog.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.resolveDish(p)
	if err != nil {
		return err
	}
	s.dishes = remove(s.dishes, func(x *catalog.Dish) bool { return x.ID == d.ID })
	s.mutations++
	return nil
}

func (s *Store) TitleExists(_ context.Context, kind catalog.Kind, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case catalog.KindMenu:
		for _, m := range s.menus {
			if m.Title == title {
				return true, nil
			}
		}
	case catalog.KindSubmenu:
		for _, sm := range s.submenus {
			if sm.Title == title {
				return true, nil
			}
		}
	case catalog.KindDish:
		for _, d := range s.dishes {
			if d.Title == title {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- helpers; callers hold the lock ---

func (s *Store) findMenu(id string) *catalog.Menu {
	for _, m := range s.menus {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (s *Store) resolveSubmenu(p catalog.Path) (*catalog.Submenu, error) {
	if s.findMenu(p.MenuID) == nil {
		return nil, catalog.NotFound(catalog.KindMenu, p.MenuID)
	}
	for _, sm := range s.submenus {
		if sm.ID == p.SubmenuID && sm.MenuID == p.MenuID {
			return sm, nil
		}
	}
	return nil, catalog.NotFound(catalog.KindSubmenu, p.SubmenuID)
}

func (s *Store) resolveDish(p catalog.Path) (*catalog.Dish, error) {
	sm, err := s.resolveSubmenu(p)
	if err != nil {
		return nil, err
	}
	for _, d := range s.dishes {
		if d.ID == p.DishID && d.SubmenuID == sm.ID {
			return d, nil
		}
	}
	return nil, catalog.NotFound(catalog.KindDish, p.DishID)
}

func (s *Store) dropSubmenu(id string) {
	s.submenus = remove(s.submenus, func(sm *catalog.Submenu) bool { return sm.ID == id })
	s.dishes = remove(s.dishes, func(d *catalog.Dish) bool { return d.SubmenuID == id })
}

func (s *Store) menuSummary(m *catalog.Menu) catalog.MenuSummary {
	out := catalog.MenuSummary{Menu: *m}
	for _, sm := range s.submenus {
		if sm.MenuID != m.ID {
			continue
		}
		out.SubmenusCount++
		out.DishesCount += s.dishCount(sm.ID)
	}
	return out
}

func (s *Store) submenuSummary(sm *catalog.Submenu) catalog.SubmenuSummary {
	return catalog.SubmenuSummary{Submenu: *sm, DishesCount: s.dishCount(sm.ID)}
}

func (s *Store) dishCount(submenuID string) int {
	n := 0
	for _, d := range s.dishes {
		if d.SubmenuID == submenuID {
			n++
		}
	}
	return n
}

func remove[T any](xs []T, drop func(T) bool) []T {
	out := xs[:0]
	for _, x := range xs {
		if !drop(x) {
			out = append(out, x)
		}
	}
	return out
}
