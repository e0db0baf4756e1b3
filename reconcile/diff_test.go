package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/menusync/catalog"
)

func persistedTree() []catalog.MenuNode {
	return []catalog.MenuNode{{
		Menu: catalog.Menu{ID: "m1", Title: "Lunch", Description: "noon"},
		Submenus: []catalog.SubmenuNode{
			{
				Submenu: catalog.Submenu{ID: "s1", MenuID: "m1", Title: "Soups", Description: "hot"},
				Dishes: []catalog.Dish{
					{ID: "d1", SubmenuID: "s1", Title: "Borscht", Description: "beet", Price: catalog.MustPrice("10.00")},
					{ID: "d2", SubmenuID: "s1", Title: "Shchi", Description: "cabbage", Price: catalog.MustPrice("8.00")},
				},
			},
			{Submenu: catalog.Submenu{ID: "s2", MenuID: "m1", Title: "Salads", Description: "cold"}},
		},
	}, {
		Menu: catalog.Menu{ID: "m2", Title: "Breakfast", Description: "early"},
	}}
}

func tableTree() []catalog.TableMenu {
	return []catalog.TableMenu{{
		Title: "Lunch", Description: "noon",
		Submenus: []catalog.TableSubmenu{{
			Title: "Soups", Description: "hot",
			Dishes: []catalog.TableDish{
				{Title: "Borscht", Description: "beet", Price: catalog.MustPrice("10.00")},
				{Title: "Shchi", Description: "cabbage", Price: catalog.MustPrice("8.00")},
			},
		}, {
			Title: "Salads", Description: "cold",
		}},
	}, {
		Title: "Breakfast", Description: "early",
	}}
}

func TestDiffUnchangedIsEmpty(t *testing.T) {
	plan := Diff(tableTree(), persistedTree(), nil)
	assert.Empty(t, plan.Deletes)
	assert.True(t, plan.Empty())
}

func TestDiffUnchangedAfterPriceRoundTrip(t *testing.T) {
	table := tableTree()
	table[0].Submenus[0].Dishes[0].Price = catalog.MustPrice("12.555")
	persisted := persistedTree()
	// A store keeps two decimals and hands the price back as text.
	persisted[0].Submenus[0].Dishes[0].Price = catalog.MustPrice(table[0].Submenus[0].Dishes[0].Price.String())

	plan := Diff(table, persisted, nil)
	assert.Equal(t, "12.56", persisted[0].Submenus[0].Dishes[0].Price.String())
	assert.True(t, plan.Empty())
	assert.Equal(t, ActionKeep, plan.Upserts[0].Submenus[0].Dishes[0].Action)
}

func TestDiffDeletesOnlyTopmostMissing(t *testing.T) {
	table := tableTree()
	table = table[:1]
	table[0].Submenus = table[0].Submenus[:1]
	table[0].Submenus[0].Dishes = table[0].Submenus[0].Dishes[:1]

	plan := Diff(table, persistedTree(), TitleMatcher{})
	require.Len(t, plan.Deletes, 3)
	assert.Equal(t, DeleteOp{Kind: catalog.KindSubmenu, Path: catalog.SubmenuPath("m1", "s2"), Title: "Salads"}, plan.Deletes[1])
	assert.Equal(t, catalog.DishPath("m1", "s1", "d2"), plan.Deletes[0].Path)
	assert.Equal(t, catalog.MenuPath("m2"), plan.Deletes[2].Path)
}

func TestDiffDeletedMenuHidesChildren(t *testing.T) {
	plan := Diff(nil, persistedTree(), nil)
	require.Len(t, plan.Deletes, 2)
	for _, op := range plan.Deletes {
		assert.Equal(t, catalog.KindMenu, op.Kind)
	}
	assert.Empty(t, plan.Upserts)
}

func TestDiffUpdatesAndCreates(t *testing.T) {
	table := tableTree()
	table[0].Description = "midday"
	table[0].Submenus[0].Dishes[0].Price = catalog.MustPrice("12.50")
	table[0].Submenus[0].Dishes = append(table[0].Submenus[0].Dishes, catalog.TableDish{Title: "Ukha", Description: "fish", Price: catalog.MustPrice("9")})
	table = append(table, catalog.TableMenu{
		Title: "Dinner", Description: "late",
		Submenus: []catalog.TableSubmenu{{Title: "Soups", Description: "hot", Dishes: []catalog.TableDish{{Title: "Borscht", Description: "beet", Price: catalog.MustPrice("10")}}}},
	})

	plan := Diff(table, persistedTree(), nil)
	assert.Empty(t, plan.Deletes)
	require.Len(t, plan.Upserts, 3)

	lunch := plan.Upserts[0]
	assert.Equal(t, ActionUpdate, lunch.Action)
	assert.Equal(t, "m1", lunch.ID)
	require.NotNil(t, lunch.Patch.Description)
	assert.Equal(t, "midday", *lunch.Patch.Description)
	assert.Nil(t, lunch.Patch.Title, "titles are never updated")

	dishes := lunch.Submenus[0].Dishes
	assert.Equal(t, ActionUpdate, dishes[0].Action)
	require.NotNil(t, dishes[0].Patch.Price)
	assert.Equal(t, "12.50", dishes[0].Patch.Price.String())
	assert.Nil(t, dishes[0].Patch.Description)
	assert.Equal(t, ActionKeep, dishes[1].Action)
	assert.Equal(t, ActionCreate, dishes[2].Action)

	// Titles shared with persisted entities elsewhere do not match under a
	// created parent.
	dinner := plan.Upserts[2]
	assert.Equal(t, ActionCreate, dinner.Action)
	assert.Equal(t, ActionCreate, dinner.Submenus[0].Action)
	assert.Equal(t, ActionCreate, dinner.Submenus[0].Dishes[0].Action)
}

func TestDiffMatchingIsCaseSensitive(t *testing.T) {
	table := tableTree()
	table[1].Title = "breakfast"
	plan := Diff(table, persistedTree(), nil)
	require.Len(t, plan.Deletes, 1)
	assert.Equal(t, "m2", plan.Deletes[0].Path.MenuID)
	assert.Equal(t, ActionCreate, plan.Upserts[1].Action)
}
