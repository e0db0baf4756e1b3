package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/menusync/catalog"
)

func seed(t *testing.T, s *Store) (catalog.Menu, catalog.Submenu, catalog.Dish) {
	t.Helper()
	ctx := context.Background()
	m, err := s.CreateMenu(ctx, catalog.MenuInput{Title: "Lunch", Description: "noon"})
	if err != nil {
		t.Fatalf("CreateMenu: %v", err)
	}
	sm, err := s.CreateSubmenu(ctx, m.ID, catalog.SubmenuInput{Title: "Soups", Description: "hot"})
	if err != nil {
		t.Fatalf("CreateSubmenu: %v", err)
	}
	d, err := s.CreateDish(ctx, catalog.SubmenuPath(m.ID, sm.ID), catalog.DishInput{
		Title: "Borscht", Description: "beet", Price: catalog.MustPrice("12.50"),
	})
	if err != nil {
		t.Fatalf("CreateDish: %v", err)
	}
	return m, sm, d
}

func TestCountsAndNested(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, _ := seed(t, s)
	if _, err := s.CreateDish(ctx, catalog.SubmenuPath(m.ID, sm.ID), catalog.DishInput{
		Title: "Ukha", Description: "fish", Price: catalog.MustPrice("9"),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMenu(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SubmenusCount != 1 || got.DishesCount != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", got.SubmenusCount, got.DishesCount)
	}

	nested, err := s.Nested(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(nested) != 1 || len(nested[0].Submenus) != 1 || len(nested[0].Submenus[0].Dishes) != 2 {
		t.Fatalf("unexpected nested shape: %+v", nested)
	}
}

func TestDeleteMenuCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)
	m2, _, _ := seed(t, s)

	if err := s.DeleteMenu(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMenu: %v", err)
	}
	if _, err := s.GetDish(ctx, catalog.DishPath(m.ID, sm.ID, d.ID)); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("dish should be gone, err=%v", err)
	}
	if _, err := s.GetMenu(ctx, m2.ID); err != nil {
		t.Fatalf("unrelated menu removed: %v", err)
	}
	nested, _ := s.Nested(ctx)
	if len(nested) != 1 || len(nested[0].Submenus[0].Dishes) != 1 {
		t.Fatalf("cascade touched the wrong subtree: %+v", nested)
	}
}

func TestScopedLookupRejectsForeignParent(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)
	other, err := s.CreateMenu(ctx, catalog.MenuInput{Title: "Dinner"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.GetDish(ctx, catalog.DishPath(other.ID, sm.ID, d.ID))
	var nf *catalog.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != catalog.KindSubmenu {
		t.Fatalf("want submenu not found, got %v", err)
	}
	if _, err := s.GetDish(ctx, catalog.DishPath(m.ID, sm.ID, d.ID)); err != nil {
		t.Fatalf("GetDish: %v", err)
	}
}

func TestTitleExistsIsGlobal(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s)
	ok, err := s.TitleExists(ctx, catalog.KindDish, "Borscht")
	if err != nil || !ok {
		t.Fatalf("TitleExists dish = %v, %v", ok, err)
	}
	ok, _ = s.TitleExists(ctx, catalog.KindMenu, "Borscht")
	if ok {
		t.Fatalf("title lookup leaked across kinds")
	}
}

func TestMutationsCounter(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, _, _ := seed(t, s)
	if s.Mutations() != 3 {
		t.Fatalf("mutations = %d, want 3", s.Mutations())
	}
	if _, err := s.UpdateMenu(ctx, "missing", catalog.MenuPatch{}); err == nil {
		t.Fatalf("expected not found")
	}
	desc := "late"
	if _, err := s.UpdateMenu(ctx, m.ID, catalog.MenuPatch{Description: &desc}); err != nil {
		t.Fatal(err)
	}
	if s.Mutations() != 4 {
		t.Fatalf("mutations = %d, want 4", s.Mutations())
	}
}
