package views

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	menusync "github.com/unkn0wn-root/menusync"
	"github.com/unkn0wn-root/menusync/cachekey"
	"github.com/unkn0wn-root/menusync/catalog"
	c "github.com/unkn0wn-root/menusync/codec"
	"github.com/unkn0wn-root/menusync/discount"
)

type ReaderConfig struct {
	Store   catalog.Store
	Overlay *discount.Overlay
	Backend *Backend
	Codec   string        // codec.ByName; "" => json
	TTL     time.Duration // 0 => DefaultTTL
	// MaxPayload caps decoded entry size; 0 disables the check.
	MaxPayload int
	Logger     menusync.Logger
}

// Reader serves every view read-through: hits come from the cache, misses are
// loaded from the store with the discount overlay applied and then filled.
type Reader struct {
	store   catalog.Store
	overlay *discount.Overlay
	lists   *Cache[ListView]
	objs    *Cache[ObjectView]
	nested  *Cache[NestedView]
	log     menusync.Logger
	sf      singleflight.Group
}

func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("views: store is required")
	}
	if cfg.Overlay == nil {
		return nil, fmt.Errorf("views: overlay is required")
	}
	lists, err := newTypedCache[ListView](cfg)
	if err != nil {
		return nil, err
	}
	objs, err := newTypedCache[ObjectView](cfg)
	if err != nil {
		return nil, err
	}
	nested, err := newTypedCache[NestedView](cfg)
	if err != nil {
		return nil, err
	}
	return &Reader{
		store:   cfg.Store,
		overlay: cfg.Overlay,
		lists:   lists,
		objs:    objs,
		nested:  nested,
		log:     menusync.OrNop(cfg.Logger),
	}, nil
}

func newTypedCache[V any](cfg ReaderConfig) (*Cache[V], error) {
	codec, err := c.ByName[V](cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.MaxPayload > 0 {
		codec = c.Limit[V]{Inner: codec, MaxDecode: cfg.MaxPayload}
	}
	return NewCache[V](cfg.Backend, codec, cfg.TTL)
}

func (r *Reader) Menus(ctx context.Context) ([]MenuView, error) {
	v, err := readThrough(ctx, r, r.lists, cachekey.List(catalog.Path{}), func(ctx context.Context) (ListView, error) {
		ms, err := r.store.ListMenus(ctx)
		if err != nil {
			return ListView{}, err
		}
		out := make([]MenuView, 0, len(ms))
		for _, m := range ms {
			out = append(out, menuView(m))
		}
		return ListView{Menus: out}, nil
	})
	return orEmpty(v.Menus), err
}

func (r *Reader) Menu(ctx context.Context, menuID string) (MenuView, error) {
	v, err := readThrough(ctx, r, r.objs, cachekey.Obj(catalog.MenuPath(menuID)), func(ctx context.Context) (ObjectView, error) {
		m, err := r.store.GetMenu(ctx, menuID)
		if err != nil {
			return ObjectView{}, err
		}
		mv := menuView(m)
		return ObjectView{Menu: &mv}, nil
	})
	if err != nil {
		return MenuView{}, err
	}
	if v.Menu == nil {
		return MenuView{}, malformed(cachekey.Obj(catalog.MenuPath(menuID)))
	}
	return *v.Menu, nil
}

func (r *Reader) Submenus(ctx context.Context, menuID string) ([]SubmenuView, error) {
	v, err := readThrough(ctx, r, r.lists, cachekey.List(catalog.MenuPath(menuID)), func(ctx context.Context) (ListView, error) {
		sms, err := r.store.ListSubmenus(ctx, menuID)
		if err != nil {
			return ListView{}, err
		}
		out := make([]SubmenuView, 0, len(sms))
		for _, sm := range sms {
			out = append(out, submenuView(sm))
		}
		return ListView{Submenus: out}, nil
	})
	return orEmpty(v.Submenus), err
}

func (r *Reader) Submenu(ctx context.Context, p catalog.Path) (SubmenuView, error) {
	key := cachekey.Obj(p)
	v, err := readThrough(ctx, r, r.objs, key, func(ctx context.Context) (ObjectView, error) {
		sm, err := r.store.GetSubmenu(ctx, p)
		if err != nil {
			return ObjectView{}, err
		}
		sv := submenuView(sm)
		return ObjectView{Submenu: &sv}, nil
	})
	if err != nil {
		return SubmenuView{}, err
	}
	if v.Submenu == nil {
		return SubmenuView{}, malformed(key)
	}
	return *v.Submenu, nil
}

// Dishes lists the dishes of the submenu at p.
func (r *Reader) Dishes(ctx context.Context, p catalog.Path) ([]DishView, error) {
	v, err := readThrough(ctx, r, r.lists, cachekey.List(p), func(ctx context.Context) (ListView, error) {
		ds, err := r.store.ListDishes(ctx, p)
		if err != nil {
			return ListView{}, err
		}
		out := make([]DishView, 0, len(ds))
		for _, d := range ds {
			out = append(out, r.dishView(ctx, catalog.DishPath(p.MenuID, p.SubmenuID, d.ID), d))
		}
		return ListView{Dishes: out}, nil
	})
	return orEmpty(v.Dishes), err
}

func (r *Reader) Dish(ctx context.Context, p catalog.Path) (DishView, error) {
	key := cachekey.Obj(p)
	v, err := readThrough(ctx, r, r.objs, key, func(ctx context.Context) (ObjectView, error) {
		d, err := r.store.GetDish(ctx, p)
		if err != nil {
			return ObjectView{}, err
		}
		dv := r.dishView(ctx, p, d)
		return ObjectView{Dish: &dv}, nil
	})
	if err != nil {
		return DishView{}, err
	}
	if v.Dish == nil {
		return DishView{}, malformed(key)
	}
	return *v.Dish, nil
}

// AllNested returns the whole catalog with discounts applied.
func (r *Reader) AllNested(ctx context.Context) ([]NestedMenu, error) {
	v, err := readThrough(ctx, r, r.nested, cachekey.AllNested(), func(ctx context.Context) (NestedView, error) {
		tree, err := r.store.Nested(ctx)
		if err != nil {
			return NestedView{}, err
		}
		out := make([]NestedMenu, 0, len(tree))
		for _, m := range tree {
			nm := NestedMenu{ID: m.ID, Title: m.Title, Description: m.Description, Submenus: make([]NestedSubmenu, 0, len(m.Submenus))}
			for _, sm := range m.Submenus {
				ns := NestedSubmenu{ID: sm.ID, Title: sm.Title, Description: sm.Description, Dishes: make([]NestedDish, 0, len(sm.Dishes))}
				for _, d := range sm.Dishes {
					price, disc := r.priced(ctx, catalog.DishPath(m.ID, sm.ID, d.ID), d.Price)
					ns.Dishes = append(ns.Dishes, NestedDish{
						ID:          d.ID,
						Title:       d.Title,
						Description: d.Description,
						Price:       price,
						Discount:    disc,
					})
				}
				nm.Submenus = append(nm.Submenus, ns)
			}
			out = append(out, nm)
		}
		return NestedView{Menus: out}, nil
	})
	return orEmpty(v.Menus), err
}

// readThrough serves key from cache, or loads it once per concurrent miss and
// fills with the generation observed before the load.
func readThrough[V any](ctx context.Context, r *Reader, cache *Cache[V], key string, load func(context.Context) (V, error)) (V, error) {
	v, ok, err := cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("cache get failed; loading from store", menusync.Fields{"key": key, "err": err})
	} else if ok {
		return v, nil
	}

	res, err, _ := r.sf.Do(key, func() (any, error) {
		obs, gerr := cache.SnapshotGen(ctx, key)
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if gerr != nil {
			r.log.Warn("gen snapshot failed; not filling", menusync.Fields{"key": key, "err": gerr})
			return v, nil
		}
		if err := cache.SetWithGen(ctx, key, v, obs); err != nil {
			r.log.Warn("cache fill failed", menusync.Fields{"key": key, "err": err})
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (r *Reader) dishView(ctx context.Context, p catalog.Path, d catalog.Dish) DishView {
	price, disc := r.priced(ctx, p, d.Price)
	return DishView{
		ID:          d.ID,
		SubmenuID:   d.SubmenuID,
		Title:       d.Title,
		Description: d.Description,
		Price:       price,
		Discount:    disc,
	}
}

// priced renders the discounted price and the discount string. An unreadable
// overlay entry is treated as no discount.
func (r *Reader) priced(ctx context.Context, p catalog.Path, price catalog.Price) (string, string) {
	d, ok, err := r.overlay.Get(ctx, p)
	if err != nil {
		r.log.Warn("discount read failed", menusync.Fields{"path": p.String(), "err": err})
	}
	if err != nil || !ok {
		d = decimal.Zero
	}
	return discount.Apply(price, d).String(), discount.Format(d)
}

func menuView(m catalog.MenuSummary) MenuView {
	return MenuView{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		SubmenusCount: m.SubmenusCount,
		DishesCount:   m.DishesCount,
	}
}

func submenuView(sm catalog.SubmenuSummary) SubmenuView {
	return SubmenuView{
		ID:          sm.ID,
		MenuID:      sm.MenuID,
		Title:       sm.Title,
		Description: sm.Description,
		DishesCount: sm.DishesCount,
	}
}

func malformed(key string) error {
	return fmt.Errorf("views: cached entry %s has no payload for its kind", key)
}
