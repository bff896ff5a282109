package inventory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryDB is the shared backing state for the in-memory
// repositories. It mirrors the SQL schema: items reference stores and
// products by id and are keyed by the (store, product) natural key.
// Not safe for concurrent use; it serves tests and local development.
type MemoryDB struct {
	stores   map[string]*Store
	products map[string]*Product
	items    map[string]*memItem
}

// NewMemoryDB returns an empty in-memory database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		stores:   map[string]*Store{},
		products: map[string]*Product{},
		items:    map[string]*memItem{},
	}
}

type memItem struct {
	id        uuid.UUID
	storeID   string
	productID string
	price     string
	quantity  int
	createdAt time.Time
	updatedAt time.Time
}

func itemMapKey(storeID, productID string) string { return storeID + ":" + productID }

// materialize resolves the item's store and product references the
// way the SQL joins do, so renames are always visible.
func (db *MemoryDB) materialize(m *memItem) *InventoryItem {
	return &InventoryItem{
		ID:        m.id,
		Store:     db.stores[m.storeID],
		Product:   db.products[m.productID],
		Price:     m.price,
		Quantity:  m.quantity,
		CreatedAt: m.createdAt,
		UpdatedAt: m.updatedAt,
	}
}

func (db *MemoryDB) itemsForStore(storeID string) []*InventoryItem {
	var items []*InventoryItem
	for _, m := range db.items {
		if m.storeID == storeID {
			items = append(items, db.materialize(m))
		}
	}
	return items
}

// ---- Store ----

type storeMemory struct{ db *MemoryDB }

// NewStoreMemoryRepository returns a StoreRepository over db.
func NewStoreMemoryRepository(db *MemoryDB) StoreRepository { return &storeMemory{db: db} }

func (r *storeMemory) List(ctx context.Context) ([]*Store, error) {
	var stores []*Store
	for _, s := range r.db.stores {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool {
		return strings.Compare(stores[i].Name, stores[j].Name) < 0
	})
	return stores, nil
}

func (r *storeMemory) GetByID(ctx context.Context, id string) (*Store, error) {
	return r.db.stores[id], nil
}

func (r *storeMemory) GetByName(ctx context.Context, name string) (*Store, error) {
	for _, s := range r.db.stores {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, nil
}

func (r *storeMemory) Create(ctx context.Context, input CreateStoreInput) (*Store, error) {
	for _, s := range r.db.stores {
		if s.Name == input.Name {
			return nil, invalidField("Store name must be unique", "name")
		}
	}
	now := time.Now().UTC()
	s := &Store{ID: uuid.New(), Name: input.Name, Location: input.Location, CreatedAt: now, UpdatedAt: now}
	r.db.stores[s.ID.String()] = s
	return s, nil
}

func (r *storeMemory) Update(ctx context.Context, id string, input UpdateStoreInput) (*Store, error) {
	current := r.db.stores[id]
	if current == nil {
		return nil, nil
	}
	name := current.Name
	if input.Name != nil && *input.Name != current.Name {
		for _, s := range r.db.stores {
			if s.Name == *input.Name && s.ID != current.ID {
				return nil, invalidField("Store name must be unique", "name")
			}
		}
		name = *input.Name
	}
	location := current.Location
	if input.Location.Set {
		location = input.Location.Value
	}
	updated := &Store{ID: current.ID, Name: name, Location: location, CreatedAt: current.CreatedAt, UpdatedAt: time.Now().UTC()}
	r.db.stores[id] = updated
	return updated, nil
}

func (r *storeMemory) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := r.db.stores[id]; !ok {
		return false, nil
	}
	delete(r.db.stores, id)
	// Cascade, as the schema's ON DELETE CASCADE does.
	for key, m := range r.db.items {
		if m.storeID == id {
			delete(r.db.items, key)
		}
	}
	return true, nil
}

func (r *storeMemory) ListItems(ctx context.Context, storeID string) ([]*InventoryItem, error) {
	items := r.db.itemsForStore(storeID)
	sort.Slice(items, func(i, j int) bool {
		if c := strings.Compare(items[i].Product.Name, items[j].Product.Name); c != 0 {
			return c < 0
		}
		return strings.Compare(items[i].ID.String(), items[j].ID.String()) < 0
	})
	return items, nil
}

// ---- Product ----

type productMemory struct{ db *MemoryDB }

// NewProductMemoryRepository returns a ProductRepository over db.
func NewProductMemoryRepository(db *MemoryDB) ProductRepository { return &productMemory{db: db} }

func (r *productMemory) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.db.products[id], nil
}

func (r *productMemory) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	now := time.Now().UTC()
	p := &Product{ID: uuid.New(), Name: input.Name, Category: input.Category, CreatedAt: now, UpdatedAt: now}
	r.db.products[p.ID.String()] = p
	return p, nil
}

func (r *productMemory) Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	current := r.db.products[id]
	if current == nil {
		return nil, nil
	}
	name := current.Name
	if input.Name != nil {
		name = *input.Name
	}
	category := current.Category
	if input.Category != nil {
		category = *input.Category
	}
	updated := &Product{ID: current.ID, Name: name, Category: category, CreatedAt: current.CreatedAt, UpdatedAt: time.Now().UTC()}
	r.db.products[id] = updated
	return updated, nil
}

// ---- Inventory ----

type inventoryMemory struct{ db *MemoryDB }

// NewInventoryMemoryRepository returns an InventoryRepository over db.
// It reproduces the SQL implementation's query semantics exactly,
// including ordering and the upsert convergence behavior.
func NewInventoryMemoryRepository(db *MemoryDB) InventoryRepository {
	return &inventoryMemory{db: db}
}

func priceDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func itemValue(ii *InventoryItem) decimal.Decimal {
	return priceDecimal(ii.Price).Mul(decimal.NewFromInt(int64(ii.Quantity)))
}

func stableCompare(a, b *InventoryItem) int {
	if c := strings.Compare(a.Store.Name, b.Store.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.Product.Name, b.Product.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func compareItems(a, b *InventoryItem, sortBy *ItemSort) int {
	primary := 0
	if sortBy != nil {
		switch sortBy.Field {
		case SortStoreName:
			primary = strings.Compare(a.Store.Name, b.Store.Name)
		case SortProductName:
			primary = strings.Compare(a.Product.Name, b.Product.Name)
		case SortCategory:
			primary = strings.Compare(a.Product.Category, b.Product.Category)
		case SortPrice:
			primary = priceDecimal(a.Price).Cmp(priceDecimal(b.Price))
		case SortQuantity:
			primary = a.Quantity - b.Quantity
		case SortValue:
			primary = itemValue(a).Cmp(itemValue(b))
		}
	}
	if primary != 0 {
		if sortBy != nil && strings.EqualFold(sortBy.Direction, "DESC") {
			return -primary
		}
		return primary
	}
	return stableCompare(a, b)
}

func matchesFilter(ii *InventoryItem, filter ItemFilter) bool {
	if filter.StoreID != "" && ii.Store.ID.String() != filter.StoreID {
		return false
	}
	if filter.Category != "" &&
		!strings.Contains(strings.ToLower(ii.Product.Category), strings.ToLower(filter.Category)) {
		return false
	}
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(ii.Product.Name), q) &&
			!strings.Contains(strings.ToLower(ii.Store.Name), q) {
			return false
		}
	}
	if filter.MinQuantity != nil && ii.Quantity < *filter.MinQuantity {
		return false
	}
	if filter.MaxQuantity != nil && ii.Quantity > *filter.MaxQuantity {
		return false
	}
	price := priceDecimal(ii.Price)
	if filter.MinPrice != "" && price.Cmp(priceDecimal(filter.MinPrice)) < 0 {
		return false
	}
	if filter.MaxPrice != "" && price.Cmp(priceDecimal(filter.MaxPrice)) > 0 {
		return false
	}
	return true
}

func (r *inventoryMemory) ListItems(ctx context.Context, filter ItemFilter, page, pageSize int, sortBy *ItemSort) (*PagedInventoryItems, error) {
	page, pageSize = clampPaging(page, pageSize)

	filtered := []*InventoryItem{}
	for _, m := range r.db.items {
		ii := r.db.materialize(m)
		if matchesFilter(ii, filter) {
			filtered = append(filtered, ii)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return compareItems(filtered[i], filtered[j], sortBy) < 0
	})

	total := len(filtered)
	offset := (page - 1) * pageSize
	items := []*InventoryItem{}
	if offset < total {
		end := offset + pageSize
		if end > total {
			end = total
		}
		items = filtered[offset:end]
	}
	return &PagedInventoryItems{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (r *inventoryMemory) UpsertItem(ctx context.Context, input UpsertItemInput) (*InventoryItem, error) {
	store := r.db.stores[input.StoreID]
	if store == nil {
		return nil, nil
	}
	product := r.db.products[input.ProductID]
	if product == nil {
		return nil, nil
	}
	price, err := AsMoneyString(input.Price)
	if err != nil {
		return nil, err
	}

	key := itemMapKey(input.StoreID, input.ProductID)
	now := time.Now().UTC()
	if existing, ok := r.db.items[key]; ok {
		updated := &memItem{
			id:        existing.id,
			storeID:   existing.storeID,
			productID: existing.productID,
			price:     price,
			quantity:  input.Quantity,
			createdAt: existing.createdAt,
			updatedAt: now,
		}
		r.db.items[key] = updated
		return r.db.materialize(updated), nil
	}

	m := &memItem{
		id:        uuid.New(),
		storeID:   input.StoreID,
		productID: input.ProductID,
		price:     price,
		quantity:  input.Quantity,
		createdAt: now,
		updatedAt: now,
	}
	r.db.items[key] = m
	return r.db.materialize(m), nil
}

func (r *inventoryMemory) DeleteItem(ctx context.Context, key ItemKey) (bool, error) {
	k := itemMapKey(key.StoreID, key.ProductID)
	if _, ok := r.db.items[k]; !ok {
		return false, nil
	}
	delete(r.db.items, k)
	return true, nil
}

func (r *inventoryMemory) StoreSummary(ctx context.Context, storeID string) (*StoreInventorySummary, error) {
	store := r.db.stores[storeID]
	if store == nil {
		return nil, nil
	}
	summary := &StoreInventorySummary{Store: store}
	totalValue := decimal.Zero
	for _, ii := range r.db.itemsForStore(storeID) {
		summary.TotalSkus++
		summary.TotalQuantity += ii.Quantity
		totalValue = totalValue.Add(itemValue(ii))
		if ii.Quantity <= lowStockThreshold {
			summary.LowStockCount++
		}
	}
	summary.TotalValue = totalValue.StringFixed(2)
	return summary, nil
}

func (r *inventoryMemory) ListStoreIDsForProduct(ctx context.Context, productID string) ([]string, error) {
	var ids []string
	for _, m := range r.db.items {
		if m.productID == productID {
			ids = append(ids, m.storeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *inventoryMemory) HasProductNameConflictInStore(ctx context.Context, storeID, productName, excludeProductID string) (bool, error) {
	for _, m := range r.db.items {
		if m.storeID != storeID || m.productID == excludeProductID {
			continue
		}
		if p := r.db.products[m.productID]; p != nil && p.Name == productName {
			return true, nil
		}
	}
	return false, nil
}
