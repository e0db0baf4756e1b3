package views

// MenuView is a menu annotated with descendant counts.
type MenuView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SubmenusCount int    `json:"submenus_count"`
	DishesCount   int    `json:"dishes_count"`
}

type SubmenuView struct {
	ID          string `json:"id"`
	MenuID      string `json:"menu_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DishesCount int    `json:"dishes_count"`
}

// DishView carries the discounted price with two decimals and the discount
// as a whole percentage ("0%" when none is set).
type DishView struct {
	ID          string `json:"id"`
	SubmenuID   string `json:"submenu_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
}

type NestedDish struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
}

type NestedSubmenu struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Dishes      []NestedDish `json:"dishes"`
}

type NestedMenu struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Submenus    []NestedSubmenu `json:"submenus"`
}

// ListView is the payload of a list:* entry. Exactly one field is set,
// matching the depth of the key.
type ListView struct {
	Menus    []MenuView    `json:"menus,omitempty"`
	Submenus []SubmenuView `json:"submenus,omitempty"`
	Dishes   []DishView    `json:"dishes,omitempty"`
}

// ObjectView is the payload of an obj:* entry. Exactly one field is set.
type ObjectView struct {
	Menu    *MenuView    `json:"menu,omitempty"`
	Submenu *SubmenuView `json:"submenu,omitempty"`
	Dish    *DishView    `json:"dish,omitempty"`
}

// NestedView is the payload of the all_nested entry.
type NestedView struct {
	Menus []NestedMenu `json:"menus"`
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
