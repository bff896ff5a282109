package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"

func productNames(items []*InventoryItem) []string {
	names := make([]string, len(items))
	for i, ii := range items {
		names[i] = ii.Product.Name
	}
	return names
}

func pairNames(items []*InventoryItem) [][2]string {
	pairs := make([][2]string, len(items))
	for i, ii := range items {
		pairs[i] = [2]string{ii.Store.Name, ii.Product.Name}
	}
	return pairs
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p := mustCreateProduct(t, r, "P", "C")

		first := mustUpsert(t, r, s.ID.String(), p.ID.String(), "1.00", 1)
		assert.Equal(t, "1.00", first.Price)
		assert.Equal(t, 1, first.Quantity)

		second := mustUpsert(t, r, s.ID.String(), p.ID.String(), "2.50", 3)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "2.50", second.Price)
		assert.Equal(t, 3, second.Quantity)
		assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

		// Exactly one row for the key.
		page, err := r.inventory.ListItems(context.Background(), ItemFilter{StoreID: s.ID.String()}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}

func TestUpsertCanonicalizesPrice(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p := mustCreateProduct(t, r, "P", "C")

		ii := mustUpsert(t, r, s.ID.String(), p.ID.String(), "2.5", 1)
		assert.Equal(t, "2.50", ii.Price)
	})
}

func TestUpsertMissingReferences(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p := mustCreateProduct(t, r, "P", "C")

		ii, err := r.inventory.UpsertItem(context.Background(), UpsertItemInput{
			StoreID: missingID, ProductID: p.ID.String(), Price: "1.00", Quantity: 1,
		})
		require.NoError(t, err)
		assert.Nil(t, ii)

		ii, err = r.inventory.UpsertItem(context.Background(), UpsertItemInput{
			StoreID: s.ID.String(), ProductID: missingID, Price: "1.00", Quantity: 1,
		})
		require.NoError(t, err)
		assert.Nil(t, ii)
	})
}

func TestUpsertConvergesUnderCompetingWriters(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p := mustCreateProduct(t, r, "P", "C")

		// Two writers target the same fresh key; whoever lands second
		// must apply its payload on the first one's row, never error
		// and never produce a second row.
		a := mustUpsert(t, r, s.ID.String(), p.ID.String(), "1.00", 1)
		b := mustUpsert(t, r, s.ID.String(), p.ID.String(), "9.99", 7)
		assert.Equal(t, a.ID, b.ID)

		page, err := r.inventory.ListItems(context.Background(), ItemFilter{StoreID: s.ID.String()}, 1, 50, nil)
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "9.99", page.Items[0].Price)
		assert.Equal(t, 7, page.Items[0].Quantity)
	})
}

func TestDeleteItemIdempotent(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p := mustCreateProduct(t, r, "P", "C")
		mustUpsert(t, r, s.ID.String(), p.ID.String(), "1.00", 1)

		key := ItemKey{StoreID: s.ID.String(), ProductID: p.ID.String()}
		deleted, err := r.inventory.DeleteItem(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = r.inventory.DeleteItem(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestPaginationClamping(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		page, err := r.inventory.ListItems(context.Background(), ItemFilter{}, 0, 9999, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 100, page.PageSize)

		page, err = r.inventory.ListItems(context.Background(), ItemFilter{}, -3, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.PageSize)
	})
}

func TestDefaultOrderIsStable(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		sb := mustCreateStore(t, r, "B Store")
		sa := mustCreateStore(t, r, "A Store")
		pb := mustCreateProduct(t, r, "B Product", "C")
		pa := mustCreateProduct(t, r, "A Product", "C")

		// Inserted in arbitrary order.
		mustUpsert(t, r, sb.ID.String(), pb.ID.String(), "1.00", 1)
		mustUpsert(t, r, sa.ID.String(), pb.ID.String(), "1.00", 1)
		mustUpsert(t, r, sa.ID.String(), pa.ID.String(), "1.00", 1)

		want := [][2]string{
			{"A Store", "A Product"},
			{"A Store", "B Product"},
			{"B Store", "B Product"},
		}

		page, err := r.inventory.ListItems(context.Background(), ItemFilter{}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, want, pairNames(page.Items))

		// An unrecognized sort field behaves like no sort.
		page, err = r.inventory.ListItems(context.Background(), ItemFilter{}, 1, 50, &ItemSort{Field: "BOGUS"})
		require.NoError(t, err)
		assert.Equal(t, want, pairNames(page.Items))
	})
}

func TestSortQuantityDescWithTieBreak(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		pa := mustCreateProduct(t, r, "A", "C")
		pb := mustCreateProduct(t, r, "B", "C")
		pc := mustCreateProduct(t, r, "C", "C")

		mustUpsert(t, r, s.ID.String(), pa.ID.String(), "1.00", 1)
		mustUpsert(t, r, s.ID.String(), pc.ID.String(), "1.00", 10)
		mustUpsert(t, r, s.ID.String(), pb.ID.String(), "1.00", 10)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{StoreID: s.ID.String()}, 1, 50,
			&ItemSort{Field: SortQuantity, Direction: "DESC"})
		require.NoError(t, err)
		// Ties on quantity fall back to product name ascending.
		assert.Equal(t, []string{"B", "C", "A"}, productNames(page.Items))
	})
}

func TestSortByPriceAndValue(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		pa := mustCreateProduct(t, r, "A", "C")
		pb := mustCreateProduct(t, r, "B", "C")
		pc := mustCreateProduct(t, r, "C", "C")

		mustUpsert(t, r, s.ID.String(), pa.ID.String(), "10.00", 1) // value 10.00
		mustUpsert(t, r, s.ID.String(), pb.ID.String(), "2.00", 20) // value 40.00
		mustUpsert(t, r, s.ID.String(), pc.ID.String(), "3.00", 1)  // value 3.00

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{}, 1, 50, &ItemSort{Field: SortPrice})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A"}, productNames(page.Items))

		page, err = r.inventory.ListItems(context.Background(),
			ItemFilter{}, 1, 50, &ItemSort{Field: SortValue, Direction: "desc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A", "C"}, productNames(page.Items))
	})
}

func TestSortByStoreNameAndCategory(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		sa := mustCreateStore(t, r, "A Store")
		sb := mustCreateStore(t, r, "B Store")
		pa := mustCreateProduct(t, r, "A", "Drinks")
		pb := mustCreateProduct(t, r, "B", "Candy")

		mustUpsert(t, r, sa.ID.String(), pa.ID.String(), "1.00", 1)
		mustUpsert(t, r, sb.ID.String(), pb.ID.String(), "1.00", 1)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{}, 1, 50, &ItemSort{Field: SortStoreName, Direction: "DESC"})
		require.NoError(t, err)
		assert.Equal(t, [][2]string{{"B Store", "B"}, {"A Store", "A"}}, pairNames(page.Items))

		page, err = r.inventory.ListItems(context.Background(),
			ItemFilter{}, 1, 50, &ItemSort{Field: SortCategory})
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, productNames(page.Items))
	})
}

func TestPaginationIsReproducibleAcrossPages(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		names := []string{"P1", "P2", "P3", "P4", "P5"}
		for _, name := range names {
			p := mustCreateProduct(t, r, name, "C")
			// Identical price so the primary sort key ties everywhere.
			mustUpsert(t, r, s.ID.String(), p.ID.String(), "1.00", 1)
		}

		var got []string
		for page := 1; page <= 3; page++ {
			res, err := r.inventory.ListItems(context.Background(),
				ItemFilter{}, page, 2, &ItemSort{Field: SortPrice})
			require.NoError(t, err)
			assert.Equal(t, 5, res.Total)
			got = append(got, productNames(res.Items)...)
		}
		assert.Equal(t, names, got)
	})
}

func TestFilterCategorySubstringCaseInsensitive(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p1 := mustCreateProduct(t, r, "P1", "Soft Drinks")
		p2 := mustCreateProduct(t, r, "P2", "Snacks")

		mustUpsert(t, r, s.ID.String(), p1.ID.String(), "1.00", 1)
		mustUpsert(t, r, s.ID.String(), p2.ID.String(), "1.00", 1)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{Category: "drin"}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"P1"}, productNames(page.Items))
	})
}

func TestFilterSearchMatchesProductOrStoreName(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s1 := mustCreateStore(t, r, "Corner Shop")
		s2 := mustCreateStore(t, r, "Megamart")
		cola := mustCreateProduct(t, r, "Cola", "Drinks")
		chips := mustCreateProduct(t, r, "Chips", "Snacks")

		mustUpsert(t, r, s1.ID.String(), cola.ID.String(), "1.00", 1)
		mustUpsert(t, r, s2.ID.String(), chips.ID.String(), "1.00", 1)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{Search: "cola"}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Cola"}, productNames(page.Items))

		page, err = r.inventory.ListItems(context.Background(),
			ItemFilter{Search: "megA"}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Chips"}, productNames(page.Items))
	})
}

func TestFilterPriceAndQuantityBoundsInclusive(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p1 := mustCreateProduct(t, r, "P1", "C")
		p2 := mustCreateProduct(t, r, "P2", "C")
		p3 := mustCreateProduct(t, r, "P3", "C")

		mustUpsert(t, r, s.ID.String(), p1.ID.String(), "1.00", 1)
		mustUpsert(t, r, s.ID.String(), p2.ID.String(), "2.50", 5)
		mustUpsert(t, r, s.ID.String(), p3.ID.String(), "4.00", 9)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{MinPrice: "2.50", MaxPrice: "4.00"}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"P2", "P3"}, productNames(page.Items))

		minQ, maxQ := 1, 5
		page, err = r.inventory.ListItems(context.Background(),
			ItemFilter{MinQuantity: &minQ, MaxQuantity: &maxQ}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"P1", "P2"}, productNames(page.Items))
	})
}

func TestFilterByStore(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s1 := mustCreateStore(t, r, "S1")
		s2 := mustCreateStore(t, r, "S2")
		p := mustCreateProduct(t, r, "P", "C")

		mustUpsert(t, r, s1.ID.String(), p.ID.String(), "1.00", 1)
		mustUpsert(t, r, s2.ID.String(), p.ID.String(), "1.00", 1)

		page, err := r.inventory.ListItems(context.Background(),
			ItemFilter{StoreID: s1.ID.String()}, 1, 50, nil)
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, s1.ID, page.Items[0].Store.ID)

		// A malformed store id matches nothing rather than erroring.
		page, err = r.inventory.ListItems(context.Background(),
			ItemFilter{StoreID: "not-a-uuid"}, 1, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
	})
}

func TestStoreSummary(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		p1 := mustCreateProduct(t, r, "P1", "C")
		p2 := mustCreateProduct(t, r, "P2", "C")

		mustUpsert(t, r, s.ID.String(), p1.ID.String(), "2.00", 5)
		mustUpsert(t, r, s.ID.String(), p2.ID.String(), "1.50", 6)

		summary, err := r.inventory.StoreSummary(context.Background(), s.ID.String())
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, s.ID, summary.Store.ID)
		assert.Equal(t, 2, summary.TotalSkus)
		assert.Equal(t, 11, summary.TotalQuantity)
		assert.Equal(t, "19.00", summary.TotalValue)
		assert.Equal(t, 1, summary.LowStockCount)
	})
}

func TestStoreSummaryEmptyAndMissing(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "Empty")

		summary, err := r.inventory.StoreSummary(context.Background(), s.ID.String())
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, 0, summary.TotalSkus)
		assert.Equal(t, 0, summary.TotalQuantity)
		assert.Equal(t, "0.00", summary.TotalValue)
		assert.Equal(t, 0, summary.LowStockCount)

		summary, err = r.inventory.StoreSummary(context.Background(), missingID)
		require.NoError(t, err)
		assert.Nil(t, summary)
	})
}

func TestListStoreIDsForProduct(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s1 := mustCreateStore(t, r, "S1")
		s2 := mustCreateStore(t, r, "S2")
		p := mustCreateProduct(t, r, "P", "C")
		other := mustCreateProduct(t, r, "Other", "C")

		mustUpsert(t, r, s1.ID.String(), p.ID.String(), "1.00", 1)
		mustUpsert(t, r, s2.ID.String(), p.ID.String(), "1.00", 1)
		mustUpsert(t, r, s1.ID.String(), other.ID.String(), "1.00", 1)

		ids, err := r.inventory.ListStoreIDsForProduct(context.Background(), p.ID.String())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{s1.ID.String(), s2.ID.String()}, ids)

		ids, err = r.inventory.ListStoreIDsForProduct(context.Background(), missingID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestHasProductNameConflictInStore(t *testing.T) {
	forEachProvider(t, func(t *testing.T, r repos) {
		s := mustCreateStore(t, r, "S")
		cola := mustCreateProduct(t, r, "Cola", "Drinks")
		other := mustCreateProduct(t, r, "Other", "Snacks")
		mustUpsert(t, r, s.ID.String(), cola.ID.String(), "1.00", 1)
		mustUpsert(t, r, s.ID.String(), other.ID.String(), "1.00", 1)

		// A different product wanting the name "Cola" conflicts.
		conflict, err := r.inventory.HasProductNameConflictInStore(
			context.Background(), s.ID.String(), "Cola", other.ID.String())
		require.NoError(t, err)
		assert.True(t, conflict)

		// The product holding the name is excluded from the check.
		conflict, err = r.inventory.HasProductNameConflictInStore(
			context.Background(), s.ID.String(), "Cola", cola.ID.String())
		require.NoError(t, err)
		assert.False(t, conflict)

		conflict, err = r.inventory.HasProductNameConflictInStore(
			context.Background(), s.ID.String(), "Pepsi", other.ID.String())
		require.NoError(t, err)
		assert.False(t, conflict)
	})
}
