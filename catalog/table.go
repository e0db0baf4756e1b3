package catalog

// TableMenu is one Menu as described by the external table. It has no id.
type TableMenu struct {
	Title       string         `validate:"required,max=50"`
	Description string         `validate:"required,max=200"`
	Submenus    []TableSubmenu `validate:"dive"`
}

type TableSubmenu struct {
	Title       string      `validate:"required,max=50"`
	Description string      `validate:"required,max=200"`
	Dishes      []TableDish `validate:"dive"`
}

// TableDish carries the raw discount cell; it is normalized only when applied.
type TableDish struct {
	Title       string `validate:"required,max=50"`
	Description string `validate:"required,max=1000"`
	Price       Price
	Discount    string
}
