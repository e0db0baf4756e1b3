package catalog

const (
	MenuTitleMaxLen    = 50
	MenuDescrMaxLen    = 200
	SubmenuTitleMaxLen = 50
	SubmenuDescrMaxLen = 200
	DishTitleMaxLen    = 50
	DishDescrMaxLen    = 1000
)

type Menu struct {
	ID          string
	Title       string
	Description string
}

type Submenu struct {
	ID          string
	MenuID      string
	Title       string
	Description string
}

type Dish struct {
	ID          string
	SubmenuID   string
	Title       string
	Description string
	Price       Price
}

// MenuSummary is a Menu annotated with descendant counts.
type MenuSummary struct {
	Menu
	SubmenusCount int
	DishesCount   int
}

// SubmenuSummary is a Submenu annotated with its dish count.
type SubmenuSummary struct {
	Submenu
	DishesCount int
}

// MenuNode is a persisted Menu with its full subtree.
type MenuNode struct {
	Menu
	Submenus []SubmenuNode
}

type SubmenuNode struct {
	Submenu
	Dishes []Dish
}

type MenuInput struct {
	Title       string `validate:"required,max=50"`
	Description string `validate:"max=200"`
}

type SubmenuInput struct {
	Title       string `validate:"required,max=50"`
	Description string `validate:"max=200"`
}

type DishInput struct {
	Title       string `validate:"required,max=50"`
	Description string `validate:"max=1000"`
	Price       Price
}

// MenuPatch updates only the non-nil fields.
type MenuPatch struct {
	Title       *string `validate:"omitnil,min=1,max=50"`
	Description *string `validate:"omitnil,max=200"`
}

type SubmenuPatch struct {
	Title       *string `validate:"omitnil,min=1,max=50"`
	Description *string `validate:"omitnil,max=200"`
}

type DishPatch struct {
	Title       *string `validate:"omitnil,min=1,max=50"`
	Description *string `validate:"omitnil,max=1000"`
	Price       *Price
}

func (p MenuPatch) Empty() bool    { return p.Title == nil && p.Description == nil }
func (p SubmenuPatch) Empty() bool { return p.Title == nil && p.Description == nil }
func (p DishPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil
}
