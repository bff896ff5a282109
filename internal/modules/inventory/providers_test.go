package inventory

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// repos bundles one backend's repository implementations for the
// contract suite.
type repos struct {
	stores    StoreRepository
	products  ProductRepository
	inventory InventoryRepository
}

type provider struct {
	name string
	open func(t *testing.T) repos
}

// providers returns the backends the contract suite runs against.
// The memory backend always runs; the postgres backend runs when
// TEST_DATABASE_URL points at a migrated database.
func providers() []provider {
	ps := []provider{{
		name: "memory",
		open: func(t *testing.T) repos {
			db := NewMemoryDB()
			return repos{
				stores:    NewStoreMemoryRepository(db),
				products:  NewProductMemoryRepository(db),
				inventory: NewInventoryMemoryRepository(db),
			}
		},
	}}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		ps = append(ps, provider{
			name: "postgres",
			open: func(t *testing.T) repos {
				db, err := sql.Open("postgres", dsn)
				require.NoError(t, err)
				t.Cleanup(func() { db.Close() })
				_, err = db.Exec(`TRUNCATE inventory_item, product, store CASCADE`)
				require.NoError(t, err)
				return repos{
					stores:    NewStorePostgresRepository(db),
					products:  NewProductPostgresRepository(db),
					inventory: NewInventoryPostgresRepository(db),
				}
			},
		})
	}
	return ps
}

// forEachProvider drives the same test body against every backend;
// the two implementations must agree on every contract.
func forEachProvider(t *testing.T, fn func(t *testing.T, r repos)) {
	for _, p := range providers() {
		t.Run(p.name, func(t *testing.T) {
			fn(t, p.open(t))
		})
	}
}

func mustCreateStore(t *testing.T, r repos, name string) *Store {
	t.Helper()
	s, err := r.stores.Create(context.Background(), CreateStoreInput{Name: name})
	require.NoError(t, err)
	return s
}

func mustCreateProduct(t *testing.T, r repos, name, category string) *Product {
	t.Helper()
	p, err := r.products.Create(context.Background(), CreateProductInput{Name: name, Category: category})
	require.NoError(t, err)
	return p
}

func mustUpsert(t *testing.T, r repos, storeID, productID, price string, quantity int) *InventoryItem {
	t.Helper()
	ii, err := r.inventory.UpsertItem(context.Background(), UpsertItemInput{
		StoreID:   storeID,
		ProductID: productID,
		Price:     price,
		Quantity:  quantity,
	})
	require.NoError(t, err)
	require.NotNil(t, ii)
	return ii
}
