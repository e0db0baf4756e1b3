// Package menusync keeps a persisted Menu/Submenu/Dish catalog in line with
// an external table and keeps the cached read views of that catalog coherent.
//
// Components:
//   - tablesource: reads the authoritative table (CSV or Google Sheets) and
//     validates its row layout.
//   - reconcile: diffs the table against the store and applies the minimal
//     set of deletes, creates and updates under a run-lock.
//   - views: read-through caches of the list, object and nested views, guarded
//     by per-key generations so a fill racing an invalidation is dropped.
//   - coherence: maps every write to the view keys and key patterns it stales.
//   - discount: the discount overlay. Discounts live only in the cache and are
//     applied to prices when a view is rendered.
//
// Keys:
//
//	list, list:<m>, list:<m>:<s>          - list views
//	obj:<m>, obj:<m>:<s>, obj:<m>:<s>:<d> - object views
//	all_nested                            - the whole nested tree
//	discount:<m>:<s>:<d>                  - discount overlay, never expires
//
// This package holds what the others share: the Logger and Hooks
// interfaces and the aggregated invalidation error.
package menusync
