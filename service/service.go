// Package service is the direct mutation path: point creates, updates and
// deletes with existence and duplicate-title checks. Cache invalidation is
// handed to a deferred executor, so a reader may see the previous view for
// a short window after a write returns.
package service

import (
	"context"
	"fmt"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/views"
)

// Submitter schedules an invalidation. coherence.Deferred implements it.
type Submitter interface {
	Submit(kind catalog.Kind, op catalog.Op, p catalog.Path)
}

type Service struct {
	store    catalog.Store
	reader   *views.Reader
	deferred Submitter
	log      menusync.Logger
}

func New(store catalog.Store, reader *views.Reader, deferred Submitter, log menusync.Logger) *Service {
	return &Service{store: store, reader: reader, deferred: deferred, log: menusync.OrNop(log)}
}

// Titles are unique per kind across the whole catalog, not per parent.
func (s *Service) checkTitle(ctx context.Context, kind catalog.Kind, title string) error {
	exists, err := s.store.TitleExists(ctx, kind, title)
	if err != nil {
		return err
	}
	if exists {
		return &catalog.DuplicateTitleError{Kind: kind, Title: title}
	}
	return nil
}

func (s *Service) written(kind catalog.Kind, op catalog.Op, p catalog.Path) {
	s.deferred.Submit(kind, op, p)
	s.log.Debug("catalog write", menusync.Fields{"kind": kind.String(), "op": op.String(), "path": p.String()})
}

// --- menus ---

func (s *Service) Menus(ctx context.Context) ([]views.MenuView, error) { return s.reader.Menus(ctx) }

func (s *Service) Menu(ctx context.Context, menuID string) (views.MenuView, error) {
	return s.reader.Menu(ctx, menuID)
}

func (s *Service) CreateMenu(ctx context.Context, in catalog.MenuInput) (catalog.Menu, error) {
	if err := catalog.Validate(in); err != nil {
		return catalog.Menu{}, err
	}
	if err := s.checkTitle(ctx, catalog.KindMenu, in.Title); err != nil {
		return catalog.Menu{}, err
	}
	m, err := s.store.CreateMenu(ctx, in)
	if err != nil {
		return catalog.Menu{}, fmt.Errorf("create menu: %w", err)
	}
	s.written(catalog.KindMenu, catalog.OpCreate, catalog.MenuPath(m.ID))
	return m, nil
}

func (s *Service) UpdateMenu(ctx context.Context, menuID string, patch catalog.MenuPatch) (catalog.Menu, error) {
	if err := catalog.Validate(patch); err != nil {
		return catalog.Menu{}, err
	}
	cur, err := s.store.GetMenu(ctx, menuID)
	if err != nil {
		return catalog.Menu{}, err
	}
	if patch.Empty() {
		return cur.Menu, nil
	}
	if patch.Title != nil && *patch.Title != cur.Title {
		if err := s.checkTitle(ctx, catalog.KindMenu, *patch.Title); err != nil {
			return catalog.Menu{}, err
		}
	}
	m, err := s.store.UpdateMenu(ctx, menuID, patch)
	if err != nil {
		return catalog.Menu{}, err
	}
	s.written(catalog.KindMenu, catalog.OpUpdate, catalog.MenuPath(menuID))
	return m, nil
}

func (s *Service) DeleteMenu(ctx context.Context, menuID string) error {
	if _, err := s.store.GetMenu(ctx, menuID); err != nil {
		return err
	}
	if err := s.store.DeleteMenu(ctx, menuID); err != nil {
		return err
	}
	s.written(catalog.KindMenu, catalog.OpDelete, catalog.MenuPath(menuID))
	return nil
}

// --- submenus ---

func (s *Service) Submenus(ctx context.Context, menuID string) ([]views.SubmenuView, error) {
	return s.reader.Submenus(ctx, menuID)
}

func (s *Service) Submenu(ctx context.Context, p catalog.Path) (views.SubmenuView, error) {
	return s.reader.Submenu(ctx, p)
}

func (s *Service) CreateSubmenu(ctx context.Context, menuID string, in catalog.SubmenuInput) (catalog.Submenu, error) {
	if err := catalog.Validate(in); err != nil {
		return catalog.Submenu{}, err
	}
	if _, err := s.store.GetMenu(ctx, menuID); err != nil {
		return catalog.Submenu{}, err
	}
	if err := s.checkTitle(ctx, catalog.KindSubmenu, in.Title); err != nil {
		return catalog.Submenu{}, err
	}
	sm, err := s.store.CreateSubmenu(ctx, menuID, in)
	if err != nil {
		return catalog.Submenu{}, fmt.Errorf("create submenu: %w", err)
	}
	s.written(catalog.KindSubmenu, catalog.OpCreate, catalog.SubmenuPath(menuID, sm.ID))
	return sm, nil
}

func (s *Service) UpdateSubmenu(ctx context.Context, p catalog.Path, patch catalog.SubmenuPatch) (catalog.Submenu, error) {
	if err := catalog.Validate(patch); err != nil {
		return catalog.Submenu{}, err
	}
	cur, err := s.store.GetSubmenu(ctx, p)
	if err != nil {
		return catalog.Submenu{}, err
	}
	if patch.Empty() {
		return cur.Submenu, nil
	}
	if patch.Title != nil && *patch.Title != cur.Title {
		if err := s.checkTitle(ctx, catalog.KindSubmenu, *patch.Title); err != nil {
			return catalog.Submenu{}, err
		}
	}
	sm, err := s.store.UpdateSubmenu(ctx, p, patch)
	if err != nil {
		return catalog.Submenu{}, err
	}
	s.written(catalog.KindSubmenu, catalog.OpUpdate, p)
	return sm, nil
}

func (s *Service) DeleteSubmenu(ctx context.Context, p catalog.Path) error {
	if _, err := s.store.GetSubmenu(ctx, p); err != nil {
		return err
	}
	if err := s.store.DeleteSubmenu(ctx, p); err != nil {
		return err
	}
	s.written(catalog.KindSubmenu, catalog.OpDelete, p)
	return nil
}

// --- dishes ---

// Dishes lists the dishes of the submenu at p.
func (s *Service) Dishes(ctx context.Context, p catalog.Path) ([]views.DishView, error) {
	return s.reader.Dishes(ctx, p)
}

func (s *Service) Dish(ctx context.Context, p catalog.Path) (views.DishView, error) {
	return s.reader.Dish(ctx, p)
}

// CreateDish adds a dish to the submenu at parent.
func (s *Service) CreateDish(ctx context.Context, parent catalog.Path, in catalog.DishInput) (catalog.Dish, error) {
	if err := catalog.Validate(in); err != nil {
		return catalog.Dish{}, err
	}
	if _, err := s.store.GetSubmenu(ctx, parent); err != nil {
		return catalog.Dish{}, err
	}
	if err := s.checkTitle(ctx, catalog.KindDish, in.Title); err != nil {
		return catalog.Dish{}, err
	}
	d, err := s.store.CreateDish(ctx, parent, in)
	if err != nil {
		return catalog.Dish{}, fmt.Errorf("create dish: %w", err)
	}
	s.written(catalog.KindDish, catalog.OpCreate, catalog.DishPath(parent.MenuID, parent.SubmenuID, d.ID))
	return d, nil
}

func (s *Service) UpdateDish(ctx context.Context, p catalog.Path, patch catalog.DishPatch) (catalog.Dish, error) {
	if err := catalog.Validate(patch); err != nil {
		return catalog.Dish{}, err
	}
	cur, err := s.store.GetDish(ctx, p)
	if err != nil {
		return catalog.Dish{}, err
	}
	if patch.Empty() {
		return cur, nil
	}
	if patch.Title != nil && *patch.Title != cur.Title {
		if err := s.checkTitle(ctx, catalog.KindDish, *patch.Title); err != nil {
			return catalog.Dish{}, err
		}
	}
	d, err := s.store.UpdateDish(ctx, p, patch)
	if err != nil {
		return catalog.Dish{}, err
	}
	s.written(catalog.KindDish, catalog.OpUpdate, p)
	return d, nil
}

func (s *Service) DeleteDish(ctx context.Context, p catalog.Path) error {
	if _, err := s.store.GetDish(ctx, p); err != nil {
		return err
	}
	if err := s.store.DeleteDish(ctx, p); err != nil {
		return err
	}
	s.written(catalog.KindDish, catalog.OpDelete, p)
	return nil
}

// AllNested returns the whole catalog with discounts applied.
func (s *Service) AllNested(ctx context.Context) ([]views.NestedMenu, error) {
	return s.reader.AllNested(ctx)
}
