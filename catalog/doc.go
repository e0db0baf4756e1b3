// Package catalog holds the Menu → Submenu → Dish domain model, the table-side
// records a reconciliation pass reads, and the Store contract every persisted
// catalog implements.
//
// Identity: persisted ids are assigned by the Store on creation and never change.
// Table records carry no id; reconciliation matches them to persisted entities by title.
package catalog
