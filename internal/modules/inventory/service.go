package inventory

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNameLen     = 120
	maxCategoryLen = 80
	maxQuantity    = 1_000_000
)

// priceRe admits non-negative decimal strings with 0–2 fraction digits.
var priceRe = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// ListItemsArgs is a listing request before normalization. Zero Page
// and PageSize select the defaults (1 and 20).
type ListItemsArgs struct {
	Filter   ItemFilter
	Sort     *ItemSort
	Page     int
	PageSize int
}

// Service defines the inventory business logic: input validation,
// cross-entity invariants, and translation of repository results into
// the NotFound/Validation error taxonomy. It is the only layer that
// raises those errors; callers never see repository internals.
type Service interface {
	// Store operations
	ListStores(ctx context.Context) ([]*Store, error)
	GetStore(ctx context.Context, id string) (*Store, error)
	CreateStore(ctx context.Context, input CreateStoreInput) (*Store, error)
	UpdateStore(ctx context.Context, id string, input UpdateStoreInput) (*Store, error)
	DeleteStore(ctx context.Context, id string) error
	ListStoreItems(ctx context.Context, storeID string) ([]*InventoryItem, error)
	GetStoreInventorySummary(ctx context.Context, storeID string) (*StoreInventorySummary, error)

	// Product operations
	CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*Product, error)

	// Inventory operations
	ListInventoryItems(ctx context.Context, args ListItemsArgs) (*PagedInventoryItems, error)
	UpsertInventoryItem(ctx context.Context, input UpsertItemInput) (*InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, key ItemKey) error
}

type service struct {
	stores    StoreRepository
	products  ProductRepository
	inventory InventoryRepository
}

// NewService creates the inventory service.
func NewService(stores StoreRepository, products ProductRepository, inventory InventoryRepository) Service {
	return &service{stores: stores, products: products, inventory: inventory}
}

func requiredString(value, field string, maxLen int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", invalidField(field+" must not be empty", field)
	}
	if len([]rune(v)) > maxLen {
		return "", invalidField(field+" is too long", field)
	}
	return v, nil
}

func requiredUUID(value, field string) (string, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", invalidField(field+" must be a valid id", field)
	}
	return value, nil
}

func validPrice(value, field string) (string, error) {
	if !priceRe.MatchString(value) {
		return "", invalidField(field+" must be a decimal string with at most 2 fraction digits", field)
	}
	return value, nil
}

func (s *service) ListStores(ctx context.Context) ([]*Store, error) {
	return s.stores.List(ctx)
}

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, notFound("Store not found")
	}
	return store, nil
}

func (s *service) CreateStore(ctx context.Context, input CreateStoreInput) (*Store, error) {
	name, err := requiredString(input.Name, "name", maxNameLen)
	if err != nil {
		return nil, err
	}
	var location *string
	if input.Location != nil {
		loc, err := requiredString(*input.Location, "location", maxNameLen)
		if err != nil {
			return nil, err
		}
		location = &loc
	}
	return s.stores.Create(ctx, CreateStoreInput{Name: name, Location: location})
}

func (s *service) UpdateStore(ctx context.Context, id string, input UpdateStoreInput) (*Store, error) {
	normalized := UpdateStoreInput{Location: input.Location}
	if input.Name != nil {
		name, err := requiredString(*input.Name, "name", maxNameLen)
		if err != nil {
			return nil, err
		}
		normalized.Name = &name
	}
	if input.Location.Set && input.Location.Value != nil {
		loc, err := requiredString(*input.Location.Value, "location", maxNameLen)
		if err != nil {
			return nil, err
		}
		normalized.Location.Value = &loc
	}
	store, err := s.stores.Update(ctx, id, normalized)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, notFound("Store not found")
	}
	return store, nil
}

func (s *service) DeleteStore(ctx context.Context, id string) error {
	storeID, err := requiredUUID(id, "store_id")
	if err != nil {
		return err
	}
	deleted, err := s.stores.Delete(ctx, storeID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Store not found")
	}
	return nil
}

func (s *service) ListStoreItems(ctx context.Context, storeID string) ([]*InventoryItem, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, notFound("Store not found")
	}
	items, err := s.stores.ListItems(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*InventoryItem{}
	}
	return items, nil
}

func (s *service) GetStoreInventorySummary(ctx context.Context, storeID string) (*StoreInventorySummary, error) {
	summary, err := s.inventory.StoreSummary(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, notFound("Store not found")
	}
	return summary, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error) {
	name, err := requiredString(input.Name, "name", maxNameLen)
	if err != nil {
		return nil, err
	}
	category, err := requiredString(input.Category, "category", maxCategoryLen)
	if err != nil {
		return nil, err
	}
	return s.products.Create(ctx, CreateProductInput{Name: name, Category: category})
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("Product not found")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	normalized := UpdateProductInput{}
	if input.Name != nil {
		name, err := requiredString(*input.Name, "name", maxNameLen)
		if err != nil {
			return nil, err
		}
		normalized.Name = &name
	}
	if input.Category != nil {
		category, err := requiredString(*input.Category, "category", maxCategoryLen)
		if err != nil {
			return nil, err
		}
		normalized.Category = &category
	}

	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound("Product not found")
	}

	// A rename must not collide with another product already stocked
	// in any store that carries this one.
	if normalized.Name != nil && *normalized.Name != existing.Name {
		storeIDs, err := s.inventory.ListStoreIDsForProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, storeID := range storeIDs {
			conflict, err := s.inventory.HasProductNameConflictInStore(ctx, storeID, *normalized.Name, id)
			if err != nil {
				return nil, err
			}
			if conflict {
				return nil, invalidField("Product name must be unique in this store", "name")
			}
		}
	}

	updated, err := s.products.Update(ctx, id, normalized)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, notFound("Product not found")
	}
	return updated, nil
}

func validateFilter(filter ItemFilter) (ItemFilter, error) {
	f := ItemFilter{
		StoreID:     strings.TrimSpace(filter.StoreID),
		MinQuantity: filter.MinQuantity,
		MaxQuantity: filter.MaxQuantity,
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		if len([]rune(c)) > maxCategoryLen {
			return f, invalidField("category is too long", "category")
		}
		f.Category = c
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		if len([]rune(q)) > maxNameLen {
			return f, invalidField("search is too long", "search")
		}
		f.Search = q
	}
	if filter.MinPrice != "" {
		if _, err := validPrice(filter.MinPrice, "min_price"); err != nil {
			return f, err
		}
		f.MinPrice = filter.MinPrice
	}
	if filter.MaxPrice != "" {
		if _, err := validPrice(filter.MaxPrice, "max_price"); err != nil {
			return f, err
		}
		f.MaxPrice = filter.MaxPrice
	}
	if filter.MinQuantity != nil && *filter.MinQuantity < 0 {
		return f, invalidField("min_quantity must be >= 0", "min_quantity")
	}
	if filter.MaxQuantity != nil && *filter.MaxQuantity < 0 {
		return f, invalidField("max_quantity must be >= 0", "max_quantity")
	}
	if filter.MinQuantity != nil && filter.MaxQuantity != nil && *filter.MinQuantity > *filter.MaxQuantity {
		return f, &ValidationError{Message: "min_quantity must be <= max_quantity"}
	}
	if f.MinPrice != "" && f.MaxPrice != "" {
		lo, _ := decimal.NewFromString(f.MinPrice)
		hi, _ := decimal.NewFromString(f.MaxPrice)
		if lo.Cmp(hi) > 0 {
			return f, &ValidationError{Message: "min_price must be <= max_price"}
		}
	}
	return f, nil
}

func (s *service) ListInventoryItems(ctx context.Context, args ListItemsArgs) (*PagedInventoryItems, error) {
	page := args.Page
	if page < 1 {
		page = 1
	}
	pageSize := args.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	filter, err := validateFilter(args.Filter)
	if err != nil {
		return nil, err
	}
	return s.inventory.ListItems(ctx, filter, page, pageSize, args.Sort)
}

func (s *service) UpsertInventoryItem(ctx context.Context, input UpsertItemInput) (*InventoryItem, error) {
	storeID, err := requiredUUID(input.StoreID, "store_id")
	if err != nil {
		return nil, err
	}
	productID, err := requiredUUID(input.ProductID, "product_id")
	if err != nil {
		return nil, err
	}
	price, err := validPrice(input.Price, "price")
	if err != nil {
		return nil, err
	}
	if input.Quantity < 0 || input.Quantity > maxQuantity {
		return nil, invalidField("quantity must be between 0 and 1000000", "quantity")
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, notFound("Store not found")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("Product not found")
	}

	// Products are global, but a store may not stock two products
	// sharing one name.
	conflict, err := s.inventory.HasProductNameConflictInStore(ctx, storeID, product.Name, productID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, invalidField("Product name must be unique in this store", "name")
	}

	item, err := s.inventory.UpsertItem(ctx, UpsertItemInput{
		StoreID:   storeID,
		ProductID: productID,
		Price:     price,
		Quantity:  input.Quantity,
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Store or product vanished between the checks and the write.
		return nil, &ValidationError{Message: "Could not upsert inventory item"}
	}
	return item, nil
}

func (s *service) DeleteInventoryItem(ctx context.Context, key ItemKey) error {
	storeID, err := requiredUUID(key.StoreID, "store_id")
	if err != nil {
		return err
	}
	productID, err := requiredUUID(key.ProductID, "product_id")
	if err != nil {
		return err
	}
	deleted, err := s.inventory.DeleteItem(ctx, ItemKey{StoreID: storeID, ProductID: productID})
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Inventory item not found")
	}
	return nil
}
