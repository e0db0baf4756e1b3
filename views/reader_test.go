package views

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/unkn0wn-root/menusync/cachekey"
	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/catalog/memstore"
	c "github.com/unkn0wn-root/menusync/codec"
	"github.com/unkn0wn-root/menusync/discount"
	"github.com/unkn0wn-root/menusync/provider/ttlcache"
)

type fixture struct {
	store   *memstore.Store
	overlay *discount.Overlay
	backend *Backend
	reader  *Reader
	menu    catalog.Menu
	sub     catalog.Submenu
	dish    catalog.Dish
}

func newFixture(t *testing.T, codecName string) *fixture {
	t.Helper()
	ctx := context.Background()
	p := ttlcache.New(ttlcache.Config{})
	b, err := NewBackend(Options{Provider: p})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close(ctx) })

	f := &fixture{store: memstore.New(), overlay: discount.NewOverlay(p), backend: b}
	f.reader, err = NewReader(ReaderConfig{Store: f.store, Overlay: f.overlay, Backend: b, Codec: codecName})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	f.menu, _ = f.store.CreateMenu(ctx, catalog.MenuInput{Title: "Lunch", Description: "noon"})
	f.sub, _ = f.store.CreateSubmenu(ctx, f.menu.ID, catalog.SubmenuInput{Title: "Soups"})
	f.dish, err = f.store.CreateDish(ctx, catalog.SubmenuPath(f.menu.ID, f.sub.ID),
		catalog.DishInput{Title: "Borscht", Price: catalog.MustPrice("100.00")})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) dishPath() catalog.Path {
	return catalog.DishPath(f.menu.ID, f.sub.ID, f.dish.ID)
}

func TestDiscountAppliedInViewsOnly(t *testing.T) {
	for _, name := range []string{c.NameJSON, c.NameMsgpack, c.NameCBOR} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, name)
			if err := f.overlay.Set(ctx, f.dishPath(), decimal.RequireFromString("0.2")); err != nil {
				t.Fatal(err)
			}

			dv, err := f.reader.Dish(ctx, f.dishPath())
			if err != nil {
				t.Fatalf("Dish: %v", err)
			}
			if dv.Price != "80.00" || dv.Discount != "20%" {
				t.Fatalf("dish view = %+v", dv)
			}
			persisted, _ := f.store.GetDish(ctx, f.dishPath())
			if persisted.Price.String() != "100.00" {
				t.Fatalf("persisted price changed: %s", persisted.Price)
			}

			nested, err := f.reader.AllNested(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got := nested[0].Submenus[0].Dishes[0]; got.Price != "80.00" || got.Discount != "20%" {
				t.Fatalf("nested dish = %+v", got)
			}

			// Cached entries survive a second read decoded through the codec.
			dv2, err := f.reader.Dish(ctx, f.dishPath())
			if err != nil || dv2 != dv {
				t.Fatalf("cached Dish = %+v, %v", dv2, err)
			}
		})
	}
}

func TestNoDiscountRendersZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	ds, err := f.reader.Dishes(ctx, catalog.SubmenuPath(f.menu.ID, f.sub.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 1 || ds[0].Price != "100.00" || ds[0].Discount != "0%" {
		t.Fatalf("dishes = %+v", ds)
	}
}

func TestReadsServeCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	ms, err := f.reader.Menus(ctx)
	if err != nil || len(ms) != 1 || ms[0].SubmenusCount != 1 || ms[0].DishesCount != 1 {
		t.Fatalf("Menus = %+v, %v", ms, err)
	}
	if _, err := f.store.CreateMenu(ctx, catalog.MenuInput{Title: "Dinner"}); err != nil {
		t.Fatal(err)
	}
	if ms, _ := f.reader.Menus(ctx); len(ms) != 1 {
		t.Fatalf("expected cached listing, got %d menus", len(ms))
	}
	if err := f.backend.Invalidate(ctx, cachekey.List(catalog.Path{})); err != nil {
		t.Fatal(err)
	}
	if ms, _ := f.reader.Menus(ctx); len(ms) != 2 {
		t.Fatalf("expected fresh listing, got %d menus", len(ms))
	}
}

func TestNotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, err := f.reader.Submenu(ctx, catalog.SubmenuPath(f.menu.ID, "missing"))
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, ok, _ := f.backend.Provider().Get(ctx, cachekey.Obj(catalog.SubmenuPath(f.menu.ID, "missing"))); ok {
		t.Fatalf("not-found result was cached")
	}
}

func TestEmptyCatalogViews(t *testing.T) {
	ctx := context.Background()
	p := ttlcache.New(ttlcache.Config{})
	b, _ := NewBackend(Options{Provider: p})
	r, err := NewReader(ReaderConfig{Store: memstore.New(), Overlay: discount.NewOverlay(p), Backend: b})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		nested, err := r.AllNested(ctx)
		if err != nil || nested == nil || len(nested) != 0 {
			t.Fatalf("AllNested pass %d = %#v, %v", i, nested, err)
		}
		ms, err := r.Menus(ctx)
		if err != nil || ms == nil || len(ms) != 0 {
			t.Fatalf("Menus pass %d = %#v, %v", i, ms, err)
		}
	}
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.reader.AllNested(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("AllNested: %v", err)
	}
	if _, ok, _ := f.backend.Provider().Get(ctx, cachekey.AllNested()); !ok {
		t.Fatalf("all_nested not filled")
	}
}
