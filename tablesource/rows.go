// Package tablesource reads the authoritative menu table and turns its rows
// into a validated catalog.TableMenu tree.
//
// A row has seven logical columns, missing trailing cells read as empty:
//
//	         0  1      2      3      4      5      6
//	menu     #  title  descr
//	submenu            title  descr
//	dish                      title  descr  price  discount
package tablesource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/menusync/catalog"
)

const Columns = 7

var ErrStructure = errors.New("tablesource: malformed table structure")

// StructureError points at the first row that broke the layout.
// Row is 1-based, matching what a spreadsheet shows.
type StructureError struct {
	Row    int
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("tablesource: row %d: %s", e.Row, e.Reason)
}

func (e *StructureError) Unwrap() error { return ErrStructure }

type RowClass int

const (
	RowEmpty RowClass = iota
	RowMenu
	RowSubmenu
	RowDish
	RowInvalid
)

func (c RowClass) String() string {
	switch c {
	case RowEmpty:
		return "empty"
	case RowMenu:
		return "menu"
	case RowSubmenu:
		return "submenu"
	case RowDish:
		return "dish"
	default:
		return "invalid"
	}
}

// pad trims every cell and extends the row to Columns cells.
func pad(row []string) []string {
	out := make([]string, Columns)
	for i := 0; i < len(row) && i < Columns; i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

// Classify decides what a row describes by which cells are filled.
func Classify(row []string) RowClass {
	r := pad(row)
	switch {
	case r[1] != "" && r[2] != "" && r[3] == "":
		return RowMenu
	case r[2] != "" && r[3] != "" && r[4] == "":
		return RowSubmenu
	case r[3] != "" && r[4] != "" && r[5] != "":
		return RowDish
	}
	for _, c := range r {
		if c != "" {
			return RowInvalid
		}
	}
	return RowEmpty
}

// Validate checks the whole table layout before anything is built from it.
// The first non-empty row must be a menu, menu and submenu rows must not
// spill into the columns of deeper levels, and a dish may not sit directly
// under a menu row.
func Validate(rows [][]string) error {
	seen := false
	afterMenu := false
	for i, raw := range rows {
		r := pad(raw)
		class := Classify(r)
		if class == RowEmpty {
			continue
		}
		if !seen && class != RowMenu {
			return &StructureError{Row: i + 1, Reason: "first row must describe a menu"}
		}
		seen = true

		switch class {
		case RowMenu:
			if anyFilled(r, 4, 5, 6) {
				return &StructureError{Row: i + 1, Reason: "menu row has cells beyond its description"}
			}
			afterMenu = true
		case RowSubmenu:
			if anyFilled(r, 0, 5, 6) {
				return &StructureError{Row: i + 1, Reason: "submenu row has cells outside its columns"}
			}
			afterMenu = false
		case RowDish:
			if anyFilled(r, 0, 1) {
				return &StructureError{Row: i + 1, Reason: "dish row has cells in menu columns"}
			}
			if afterMenu {
				return &StructureError{Row: i + 1, Reason: "dish row directly under a menu"}
			}
		default:
			return &StructureError{Row: i + 1, Reason: "row matches no menu, submenu or dish layout"}
		}
	}
	return nil
}

// Build validates rows and assembles the table tree. Prices are parsed here;
// discounts stay raw until they are applied.
func Build(rows [][]string) ([]catalog.TableMenu, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}
	menus := []catalog.TableMenu{}
	for i, raw := range rows {
		r := pad(raw)
		switch Classify(r) {
		case RowMenu:
			menus = append(menus, catalog.TableMenu{Title: r[1], Description: r[2], Submenus: []catalog.TableSubmenu{}})
		case RowSubmenu:
			m := &menus[len(menus)-1]
			m.Submenus = append(m.Submenus, catalog.TableSubmenu{Title: r[2], Description: r[3], Dishes: []catalog.TableDish{}})
		case RowDish:
			m := &menus[len(menus)-1]
			s := &m.Submenus[len(m.Submenus)-1]
			price, err := catalog.ParsePrice(r[5])
			if err != nil {
				return nil, fmt.Errorf("tablesource: row %d: %w", i+1, err)
			}
			s.Dishes = append(s.Dishes, catalog.TableDish{Title: r[3], Description: r[4], Price: price, Discount: r[6]})
		}
	}
	for _, m := range menus {
		if err := catalog.Validate(m); err != nil {
			return nil, fmt.Errorf("tablesource: menu %q: %w", m.Title, err)
		}
	}
	return menus, nil
}

func anyFilled(r []string, cols ...int) bool {
	for _, c := range cols {
		if r[c] != "" {
			return true
		}
	}
	return false
}
