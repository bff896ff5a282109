package inventory

import "context"

// CreateStoreInput holds data for creating a store.
type CreateStoreInput struct {
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

// UpdateStoreInput carries optional fields. Location is tri-state:
// absent leaves the value unchanged, explicit null clears it.
type UpdateStoreInput struct {
	Name     *string        `json:"name"`
	Location OptionalString `json:"location"`
}

// CreateProductInput holds data for creating a product.
type CreateProductInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// UpdateProductInput carries optional product fields.
type UpdateProductInput struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
}

// ItemFilter narrows an inventory listing. All fields are optional
// and AND-combined; empty strings and nil pointers mean "no bound".
type ItemFilter struct {
	StoreID     string
	Category    string
	Search      string
	MinPrice    string
	MaxPrice    string
	MinQuantity *int
	MaxQuantity *int
}

// Sort fields for inventory listings. Anything else falls back to the
// stable tie-break ordering.
const (
	SortStoreName   = "STORE_NAME"
	SortProductName = "PRODUCT_NAME"
	SortCategory    = "CATEGORY"
	SortPrice       = "PRICE"
	SortQuantity    = "QUANTITY"
	SortValue       = "VALUE"
)

// ItemSort is a sort request. Direction defaults to ascending.
type ItemSort struct {
	Field     string
	Direction string // "ASC" or "DESC"
}

// UpsertItemInput identifies a (store, product) pair and the payload
// to write for it.
type UpsertItemInput struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// ItemKey is the natural key of an inventory item.
type ItemKey struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
}

// StoreRepository defines store data storage.
type StoreRepository interface {
	// List returns all stores ordered by name ascending.
	List(ctx context.Context) ([]*Store, error)
	// GetByID returns the store, or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*Store, error)
	// GetByName returns the store with the exact name, or nil.
	GetByName(ctx context.Context, name string) (*Store, error)
	// Create inserts a store. Name collisions, whether seen by the
	// pre-check or reported by the storage constraint, surface as a
	// ValidationError on the name field.
	Create(ctx context.Context, input CreateStoreInput) (*Store, error)
	// Update applies the provided fields, or returns nil when the
	// store does not exist.
	Update(ctx context.Context, id string, input UpdateStoreInput) (*Store, error)
	// Delete removes the store and, by cascade, its inventory items.
	// It reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// ListItems returns the store's items ordered by product name
	// ascending.
	ListItems(ctx context.Context, storeID string) ([]*InventoryItem, error)
}

// ProductRepository defines product data storage. Products are global;
// no uniqueness is enforced at this layer.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	// Update returns nil when the product does not exist.
	Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error)
}

// InventoryRepository is the inventory query engine plus the
// write operations on the (store, product) natural key.
type InventoryRepository interface {
	// ListItems filters, sorts and paginates. Page is clamped to at
	// least 1 and pageSize to [1, 100]; every ordering ends with the
	// stable tie-break (store name, product name, item id ascending).
	ListItems(ctx context.Context, filter ItemFilter, page, pageSize int, sort *ItemSort) (*PagedInventoryItems, error)
	// UpsertItem inserts or updates the row for the key. A missing
	// store or product yields (nil, nil). Losing an insert race to a
	// concurrent writer converges by applying the payload on the
	// winner's row instead of failing.
	UpsertItem(ctx context.Context, input UpsertItemInput) (*InventoryItem, error)
	// DeleteItem reports whether a row existed and was removed.
	DeleteItem(ctx context.Context, key ItemKey) (bool, error)
	// StoreSummary aggregates one store's inventory, or returns nil
	// when the store does not exist. A store with no items yields
	// all-zero aggregates.
	StoreSummary(ctx context.Context, storeID string) (*StoreInventorySummary, error)
	// ListStoreIDsForProduct returns the ids of stores currently
	// stocking the product.
	ListStoreIDsForProduct(ctx context.Context, productID string) ([]string, error)
	// HasProductNameConflictInStore reports whether the store stocks
	// a different product with the given name.
	HasProductNameConflictInStore(ctx context.Context, storeID, productName, excludeProductID string) (bool, error)
}
