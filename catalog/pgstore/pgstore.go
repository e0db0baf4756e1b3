// Package pgstore is a PostgreSQL catalog.Store built on pgx/v5.
//
// Foreign keys carry ON DELETE CASCADE, so removing a menu or submenu removes its
// subtree in the same statement.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unkn0wn-root/menusync/catalog"
)

// Schema creates the catalog tables when they do not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS menu (
	id          uuid PRIMARY KEY,
	title       varchar(50)  NOT NULL,
	description varchar(200) NOT NULL DEFAULT '',
	created_at  timestamptz  NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS submenu (
	id          uuid PRIMARY KEY,
	menu_id     uuid NOT NULL REFERENCES menu(id) ON DELETE CASCADE,
	title       varchar(50)  NOT NULL,
	description varchar(200) NOT NULL DEFAULT '',
	created_at  timestamptz  NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS dish (
	id          uuid PRIMARY KEY,
	submenu_id  uuid NOT NULL REFERENCES submenu(id) ON DELETE CASCADE,
	title       varchar(50)   NOT NULL,
	description varchar(1000) NOT NULL DEFAULT '',
	price       numeric(12,2) NOT NULL CHECK (price >= 0),
	created_at  timestamptz   NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS submenu_menu_id_idx ON submenu(menu_id);
CREATE INDEX IF NOT EXISTS dish_submenu_id_idx ON dish(submenu_id);
`

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// snapshot makes the three reads of Nested see one consistent tree.
var snapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

var _ DB = (*pgxpool.Pool)(nil)

type Store struct {
	db DB
}

var _ catalog.Store = (*Store)(nil)

func New(db DB) *Store { return &Store{db: db} }

// Open connects a pool and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("pgstore: schema: %w", err)
	}
	return nil
}

// Nested reads menus, submenus and dishes inside one read-only repeatable
// read transaction, so a concurrent write cannot split the tree.
func (s *Store) Nested(ctx context.Context) ([]catalog.MenuNode, error) {
	tx, err := s.db.BeginTx(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("pgstore: begin snapshot: %w", err)
	}
	// Nothing to commit; rollback ends the snapshot.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	menus, err := queryMenus(ctx, tx, `SELECT id::text, title, description FROM menu ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	subs, err := querySubmenus(ctx, tx, `SELECT id::text, menu_id::text, title, description FROM submenu ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	dishes, err := queryDishes(ctx, tx, `SELECT id::text, submenu_id::text, title, description, price::text FROM dish ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}

	dishesBySub := make(map[string][]catalog.Dish, len(subs))
	for _, d := range dishes {
		dishesBySub[d.SubmenuID] = append(dishesBySub[d.SubmenuID], d)
	}
	subsByMenu := make(map[string][]catalog.SubmenuNode, len(menus))
	for _, sm := range subs {
		ds := dishesBySub[sm.ID]
		if ds == nil {
			ds = []catalog.Dish{}
		}
		subsByMenu[sm.MenuID] = append(subsByMenu[sm.MenuID], catalog.SubmenuNode{Submenu: sm, Dishes: ds})
	}
	out := make([]catalog.MenuNode, 0, len(menus))
	for _, m := range menus {
		sn := subsByMenu[m.ID]
		if sn == nil {
			sn = []catalog.SubmenuNode{}
		}
		out = append(out, catalog.MenuNode{Menu: m, Submenus: sn})
	}
	return out, nil
}

const menuSummarySQL = `
SELECT m.id::text, m.title, m.description,
       count(DISTINCT s.id), count(d.id)
FROM menu m
LEFT JOIN submenu s ON s.menu_id = m.id
LEFT JOIN dish d ON d.submenu_id = s.id`

func (s *Store) ListMenus(ctx context.Context) ([]catalog.MenuSummary, error) {
	rows, err := s.db.Query(ctx, menuSummarySQL+` GROUP BY m.id ORDER BY m.created_at, m.id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list menus: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuSummary)
}

func (s *Store) GetMenu(ctx context.Context, menuID string) (catalog.MenuSummary, error) {
	if !validID(menuID) {
		return catalog.MenuSummary{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	rows, err := s.db.Query(ctx, menuSummarySQL+` WHERE m.id = $1 GROUP BY m.id`, menuID)
	if err != nil {
		return catalog.MenuSummary{}, fmt.Errorf("pgstore: get menu: %w", err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, scanMenuSummary)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.MenuSummary{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	return out, err
}

func (s *Store) CreateMenu(ctx context.Context, in catalog.MenuInput) (catalog.Menu, error) {
	m := catalog.Menu{ID: uuid.NewString(), Title: in.Title, Description: in.Description}
	_, err := s.db.Exec(ctx, `INSERT INTO menu (id, title, description) VALUES ($1, $2, $3)`,
		m.ID, m.Title, m.Description)
	if err != nil {
		return catalog.Menu{}, fmt.Errorf("pgstore: create menu: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMenu(ctx context.Context, menuID string, patch catalog.MenuPatch) (catalog.Menu, error) {
	if !validID(menuID) {
		return catalog.Menu{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	var m catalog.Menu
	err := s.db.QueryRow(ctx, `
UPDATE menu SET title = coalesce($2, title), description = coalesce($3, description)
WHERE id = $1
RETURNING id::text, title, description`, menuID, patch.Title, patch.Description).
		Scan(&m.ID, &m.Title, &m.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Menu{}, catalog.NotFound(catalog.KindMenu, menuID)
	}
	if err != nil {
		return catalog.Menu{}, fmt.Errorf("pgstore: update menu: %w", err)
	}
	return m, nil
}

func (s *Store) DeleteMenu(ctx context.Context, menuID string) error {
	if !validID(menuID) {
		return catalog.NotFound(catalog.KindMenu, menuID)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM menu WHERE id = $1`, menuID)
	if err != nil {
		return fmt.Errorf("pgstore: delete menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.NotFound(catalog.KindMenu, menuID)
	}
	return nil
}

const submenuSummarySQL = `
SELECT s.id::text, s.menu_id::text, s.title, s.description, count(d.id)
FROM submenu s
LEFT JOIN dish d ON d.submenu_id = s.id`

func (s *Store) ListSubmenus(ctx context.Context, menuID string) ([]catalog.SubmenuSummary, error) {
	if err := s.checkPath(ctx, catalog.MenuPath(menuID)); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, submenuSummarySQL+` WHERE s.menu_id = $1 GROUP BY s.id ORDER BY s.created_at, s.id`, menuID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list submenus: %w", err)
	}
	return pgx.CollectRows(rows, scanSubmenuSummary)
}

func (s *Store) GetSubmenu(ctx context.Context, p catalog.Path) (catalog.SubmenuSummary, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return catalog.SubmenuSummary{}, err
	}
	rows, err := s.db.Query(ctx, submenuSummarySQL+` WHERE s.id = $1 GROUP BY s.id`, p.SubmenuID)
	if err != nil {
		return catalog.SubmenuSummary{}, fmt.Errorf("pgstore: get submenu: %w", err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, scanSubmenuSummary)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.SubmenuSummary{}, catalog.NotFound(catalog.KindSubmenu, p.SubmenuID)
	}
	return out, err
}

func (s *Store) CreateSubmenu(ctx context.Context, menuID string, in catalog.SubmenuInput) (catalog.Submenu, error) {
	if err := s.checkPath(ctx, catalog.MenuPath(menuID)); err != nil {
		return catalog.Submenu{}, err
	}
	sm := catalog.Submenu{ID: uuid.NewString(), MenuID: menuID, Title: in.Title, Description: in.Description}
	_, err := s.db.Exec(ctx, `INSERT INTO submenu (id, menu_id, title, description) VALUES ($1, $2, $3, $4)`,
		sm.ID, sm.MenuID, sm.Title, sm.Description)
	if err != nil {
		return catalog.Submenu{}, fmt.Errorf("pgstore: create submenu: %w", err)
	}
	return sm, nil
}

func (s *Store) UpdateSubmenu(ctx context.Context, p catalog.Path, patch catalog.SubmenuPatch) (catalog.Submenu, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return catalog.Submenu{}, err
	}
	var sm catalog.Submenu
	err := s.db.QueryRow(ctx, `
UPDATE submenu SET title = coalesce($2, title), description = coalesce($3, description)
WHERE id = $1
RETURNING id::text, menu_id::text, title, description`, p.SubmenuID, patch.Title, patch.Description).
		Scan(&sm.ID, &sm.MenuID, &sm.Title, &sm.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Submenu{}, catalog.NotFound(catalog.KindSubmenu, p.SubmenuID)
	}
	if err != nil {
		return catalog.Submenu{}, fmt.Errorf("pgstore: update submenu: %w", err)
	}
	return sm, nil
}

func (s *Store) DeleteSubmenu(ctx context.Context, p catalog.Path) error {
	if err := s.checkPath(ctx, p); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM submenu WHERE id = $1`, p.SubmenuID)
	if err != nil {
		return fmt.Errorf("pgstore: delete submenu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.NotFound(catalog.KindSubmenu, p.SubmenuID)
	}
	return nil
}

func (s *Store) ListDishes(ctx context.Context, p catalog.Path) ([]catalog.Dish, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return nil, err
	}
	return queryDishes(ctx, s.db, `
SELECT id::text, submenu_id::text, title, description, price::text
FROM dish WHERE submenu_id = $1 ORDER BY created_at, id`, p.SubmenuID)
}

func (s *Store) GetDish(ctx context.Context, p catalog.Path) (catalog.Dish, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return catalog.Dish{}, err
	}
	ds, err := queryDishes(ctx, s.db, `
SELECT id::text, submenu_id::text, title, description, price::text
FROM dish WHERE id = $1`, p.DishID)
	if err != nil {
		return catalog.Dish{}, err
	}
	if len(ds) == 0 {
		return catalog.Dish{}, catalog.NotFound(catalog.KindDish, p.DishID)
	}
	return ds[0], nil
}

func (s *Store) CreateDish(ctx context.Context, p catalog.Path, in catalog.DishInput) (catalog.Dish, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return catalog.Dish{}, err
	}
	d := catalog.Dish{
		ID:          uuid.NewString(),
		SubmenuID:   p.SubmenuID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO dish (id, submenu_id, title, description, price) VALUES ($1, $2, $3, $4, $5::numeric)`,
		d.ID, d.SubmenuID, d.Title, d.Description, d.Price.String())
	if err != nil {
		return catalog.Dish{}, fmt.Errorf("pgstore: create dish: %w", err)
	}
	return d, nil
}

func (s *Store) UpdateDish(ctx context.Context, p catalog.Path, patch catalog.DishPatch) (catalog.Dish, error) {
	if err := s.checkPath(ctx, p); err != nil {
		return catalog.Dish{}, err
	}
	var price *string
	if patch.Price != nil {
		ps := patch.Price.String()
		price = &ps
	}
	ds, err := queryDishes(ctx, s.db, `
UPDATE dish SET title = coalesce($2, title),
                description = coalesce($3, description),
                price = coalesce($4::numeric, price)
WHERE id = $1
RETURNING id::text, submenu_id::text, title, description, price::text`,
		p.DishID, patch.Title, patch.Description, price)
	if err != nil {
		return catalog.Dish{}, err
	}
	if len(ds) == 0 {
		return catalog.Dish{}, catalog.NotFound(catalog.KindDish, p.DishID)
	}
	return ds[0], nil
}

func (s *Store) DeleteDish(ctx context.Context, p catalog.Path) error {
	if err := s.checkPath(ctx, p); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM dish WHERE id = $1`, p.DishID)
	if err != nil {
		return fmt.Errorf("pgstore: delete dish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.NotFound(catalog.KindDish, p.DishID)
	}
	return nil
}

func (s *Store) TitleExists(ctx context.Context, kind catalog.Kind, title string) (bool, error) {
	var table string
	switch kind {
	case catalog.KindMenu:
		table = "menu"
	case catalog.KindSubmenu:
		table = "submenu"
	case catalog.KindDish:
		table = "dish"
	default:
		return false, fmt.Errorf("%w: kind %d", catalog.ErrInvalid, kind)
	}
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE title = $1)`, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: title exists: %w", err)
	}
	return exists, nil
}

// checkPath verifies every id on p exists under its parent and reports the
// shallowest missing level.
func (s *Store) checkPath(ctx context.Context, p catalog.Path) error {
	for _, id := range []string{p.MenuID, p.SubmenuID, p.DishID} {
		if id != "" && !validID(id) {
			return catalog.NotFound(p.Kind(), p.ID())
		}
	}
	var menuOK, subOK, dishOK bool
	err := s.db.QueryRow(ctx, `
SELECT
	EXISTS (SELECT 1 FROM menu WHERE id = $1),
	$2::uuid IS NULL OR EXISTS (SELECT 1 FROM submenu WHERE id = $2::uuid AND menu_id = $1),
	$3::uuid IS NULL OR EXISTS (SELECT 1 FROM dish WHERE id = $3::uuid AND submenu_id = $2::uuid)`,
		p.MenuID, nullable(p.SubmenuID), nullable(p.DishID)).Scan(&menuOK, &subOK, &dishOK)
	if err != nil {
		return fmt.Errorf("pgstore: check path: %w", err)
	}
	switch {
	case !menuOK:
		return catalog.NotFound(catalog.KindMenu, p.MenuID)
	case !subOK:
		return catalog.NotFound(catalog.KindSubmenu, p.SubmenuID)
	case !dishOK:
		return catalog.NotFound(catalog.KindDish, p.DishID)
	}
	return nil
}

func queryMenus(ctx context.Context, q querier, sql string, args ...any) ([]catalog.Menu, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query menus: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Menu, error) {
		var m catalog.Menu
		err := row.Scan(&m.ID, &m.Title, &m.Description)
		return m, err
	})
}

func querySubmenus(ctx context.Context, q querier, sql string, args ...any) ([]catalog.Submenu, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query submenus: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Submenu, error) {
		var sm catalog.Submenu
		err := row.Scan(&sm.ID, &sm.MenuID, &sm.Title, &sm.Description)
		return sm, err
	})
}

func queryDishes(ctx context.Context, q querier, sql string, args ...any) ([]catalog.Dish, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query dishes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Dish, error) {
		var (
			d     catalog.Dish
			price string
		)
		if err := row.Scan(&d.ID, &d.SubmenuID, &d.Title, &d.Description, &price); err != nil {
			return d, err
		}
		p, err := catalog.ParsePrice(price)
		if err != nil {
			return d, err
		}
		d.Price = p
		return d, nil
	})
}

func scanMenuSummary(row pgx.CollectableRow) (catalog.MenuSummary, error) {
	var (
		m        catalog.MenuSummary
		subs, ds int64
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &subs, &ds)
	m.SubmenusCount, m.DishesCount = int(subs), int(ds)
	return m, err
}

func scanSubmenuSummary(row pgx.CollectableRow) (catalog.SubmenuSummary, error) {
	var (
		sm catalog.SubmenuSummary
		ds int64
	)
	err := row.Scan(&sm.ID, &sm.MenuID, &sm.Title, &sm.Description, &ds)
	sm.DishesCount = int(ds)
	return sm, err
}

// validID filters ids that would make postgres reject the uuid cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
