package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a physical or virtual shop carrying inventory.
type Store struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a globally defined product. Products carry no uniqueness
// constraint on their own; name uniqueness is enforced per store, at
// the point a product enters a store's inventory.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryItem is one (store, product) pairing with its price and
// quantity. Price is a decimal string; it is never held in a float.
type InventoryItem struct {
	ID        uuid.UUID `json:"id"`
	Store     *Store    `json:"store"`
	Product   *Product  `json:"product"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryValue is price × quantity as a canonical money string.
// Computed on read, never stored.
func (ii *InventoryItem) InventoryValue() string {
	p, err := decimal.NewFromString(ii.Price)
	if err != nil {
		return "0.00"
	}
	return p.Mul(decimal.NewFromInt(int64(ii.Quantity))).StringFixed(2)
}

// MarshalJSON includes the derived inventory_value field.
func (ii *InventoryItem) MarshalJSON() ([]byte, error) {
	type alias InventoryItem
	return json.Marshal(struct {
		*alias
		InventoryValue string `json:"inventory_value"`
	}{(*alias)(ii), ii.InventoryValue()})
}

// PagedInventoryItems is one page of a filtered listing. Page and
// PageSize reflect the clamped values actually used.
type PagedInventoryItems struct {
	Items    []*InventoryItem `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// StoreInventorySummary aggregates a single store's inventory.
type StoreInventorySummary struct {
	Store         *Store `json:"store"`
	TotalSkus     int    `json:"total_skus"`
	TotalQuantity int    `json:"total_quantity"`
	TotalValue    string `json:"total_value"`
	LowStockCount int    `json:"low_stock_count"`
}

// OptionalString is a tri-state update field: absent (Set false),
// explicit null (Set true, Value nil), or a value. Absent leaves the
// column unchanged; null clears it.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
