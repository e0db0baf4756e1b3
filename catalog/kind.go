package catalog

// Kind is the level of an entity in the catalog hierarchy.
type Kind uint8

const (
	KindMenu Kind = iota + 1
	KindSubmenu
	KindDish
)

func (k Kind) String() string {
	switch k {
	case KindMenu:
		return "menu"
	case KindSubmenu:
		return "submenu"
	case KindDish:
		return "dish"
	default:
		return "unknown"
	}
}

// Op is a mutation applied to one entity.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Path addresses an entity (or a parent scope) by its ancestor ids.
// The zero Path is the global scope.
type Path struct {
	MenuID    string
	SubmenuID string
	DishID    string
}

func MenuPath(menuID string) Path { return Path{MenuID: menuID} }

func SubmenuPath(menuID, submenuID string) Path {
	return Path{MenuID: menuID, SubmenuID: submenuID}
}

func DishPath(menuID, submenuID, dishID string) Path {
	return Path{MenuID: menuID, SubmenuID: submenuID, DishID: dishID}
}

// Kind returns the kind of the deepest id set; 0 for the global scope.
func (p Path) Kind() Kind {
	switch {
	case p.DishID != "":
		return KindDish
	case p.SubmenuID != "":
		return KindSubmenu
	case p.MenuID != "":
		return KindMenu
	default:
		return 0
	}
}

// Parent drops the deepest id.
func (p Path) Parent() Path {
	switch p.Kind() {
	case KindDish:
		return Path{MenuID: p.MenuID, SubmenuID: p.SubmenuID}
	case KindSubmenu:
		return Path{MenuID: p.MenuID}
	default:
		return Path{}
	}
}

// ID returns the deepest id.
func (p Path) ID() string {
	switch p.Kind() {
	case KindDish:
		return p.DishID
	case KindSubmenu:
		return p.SubmenuID
	default:
		return p.MenuID
	}
}

func (p Path) String() string {
	switch p.Kind() {
	case KindDish:
		return p.MenuID + "/" + p.SubmenuID + "/" + p.DishID
	case KindSubmenu:
		return p.MenuID + "/" + p.SubmenuID
	case KindMenu:
		return p.MenuID
	default:
		return "/"
	}
}
