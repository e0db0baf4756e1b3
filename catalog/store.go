package catalog

import "context"

// Store is the persisted catalog. Deleting a parent deletes its descendants.
// Scoped lookups return a NotFoundError when any id on the path does not match,
// including a child that exists under a different parent.
type Store interface {
	// Nested returns every menu with its full subtree.
	Nested(ctx context.Context) ([]MenuNode, error)

	ListMenus(ctx context.Context) ([]MenuSummary, error)
	GetMenu(ctx context.Context, menuID string) (MenuSummary, error)
	CreateMenu(ctx context.Context, in MenuInput) (Menu, error)
	UpdateMenu(ctx context.Context, menuID string, patch MenuPatch) (Menu, error)
	DeleteMenu(ctx context.Context, menuID string) error

	ListSubmenus(ctx context.Context, menuID string) ([]SubmenuSummary, error)
	GetSubmenu(ctx context.Context, p Path) (SubmenuSummary, error)
	CreateSubmenu(ctx context.Context, menuID string, in SubmenuInput) (Submenu, error)
	UpdateSubmenu(ctx context.Context, p Path, patch SubmenuPatch) (Submenu, error)
	DeleteSubmenu(ctx context.Context, p Path) error

	ListDishes(ctx context.Context, p Path) ([]Dish, error)
	GetDish(ctx context.Context, p Path) (Dish, error)
	CreateDish(ctx context.Context, p Path, in DishInput) (Dish, error)
	UpdateDish(ctx context.Context, p Path, patch DishPatch) (Dish, error)
	DeleteDish(ctx context.Context, p Path) error

	// TitleExists reports whether any entity of kind has title, across the whole catalog.
	TitleExists(ctx context.Context, kind Kind, title string) (bool, error)
}
