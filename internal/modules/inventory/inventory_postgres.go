package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// lowStockThreshold is a fixed business rule: quantity at or below it
// counts as low stock.
const lowStockThreshold = 5

type inventoryPostgres struct{ db *sql.DB }

// NewInventoryPostgresRepository returns an InventoryRepository backed
// by Postgres. Uniqueness of the (store_id, product_id) pair and
// referential integrity are enforced by the schema; this repository
// translates the resulting constraint violations into the upsert
// recovery paths.
func NewInventoryPostgresRepository(db *sql.DB) InventoryRepository {
	return &inventoryPostgres{db: db}
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// stableOrder makes pagination reproducible: after any primary sort
// key, ties break on store name, product name, then item id.
const stableOrder = "s.name ASC, p.name ASC, ii.id ASC"

func orderClause(sort *ItemSort) string {
	if sort == nil {
		return stableOrder
	}
	dir := "ASC"
	if strings.EqualFold(sort.Direction, "DESC") {
		dir = "DESC"
	}
	switch sort.Field {
	case SortStoreName:
		return "s.name " + dir + ", p.name ASC, ii.id ASC"
	case SortProductName:
		return "p.name " + dir + ", s.name ASC, ii.id ASC"
	case SortCategory:
		return "p.category " + dir + ", " + stableOrder
	case SortPrice:
		return "ii.price " + dir + ", " + stableOrder
	case SortQuantity:
		return "ii.quantity " + dir + ", " + stableOrder
	case SortValue:
		return "(ii.quantity * ii.price) " + dir + ", " + stableOrder
	default:
		return stableOrder
	}
}

func (r *inventoryPostgres) ListItems(ctx context.Context, filter ItemFilter, page, pageSize int, sort *ItemSort) (*PagedInventoryItems, error) {
	page, pageSize = clampPaging(page, pageSize)
	empty := &PagedInventoryItems{Items: []*InventoryItem{}, Page: page, PageSize: pageSize}

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StoreID != "" {
		uid, err := uuid.Parse(filter.StoreID)
		if err != nil {
			// No store can match a malformed id.
			return empty, nil
		}
		where = append(where, "ii.store_id = "+arg(uid))
	}
	if filter.Category != "" {
		where = append(where, "p.category ILIKE '%' || "+arg(filter.Category)+" || '%'")
	}
	if filter.Search != "" {
		ph := arg(filter.Search)
		where = append(where, "(p.name ILIKE '%' || "+ph+" || '%' OR s.name ILIKE '%' || "+ph+" || '%')")
	}
	if filter.MinPrice != "" {
		where = append(where, "ii.price >= "+arg(filter.MinPrice)+"::numeric")
	}
	if filter.MaxPrice != "" {
		where = append(where, "ii.price <= "+arg(filter.MaxPrice)+"::numeric")
	}
	if filter.MinQuantity != nil {
		where = append(where, "ii.quantity >= "+arg(*filter.MinQuantity))
	}
	if filter.MaxQuantity != nil {
		where = append(where, "ii.quantity <= "+arg(*filter.MaxQuantity))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "\nWHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT count(*)"+itemFrom+whereSQL, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := "SELECT " + itemColumns + itemFrom + whereSQL +
		"\nORDER BY " + orderClause(sort) +
		"\nLIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*InventoryItem{}
	for rows.Next() {
		ii, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ii)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &PagedInventoryItems{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (r *inventoryPostgres) getItem(ctx context.Context, storeID, productID uuid.UUID) (*InventoryItem, error) {
	ii, err := scanItem(r.db.QueryRowContext(ctx, `
SELECT `+itemColumns+itemFrom+`
WHERE ii.store_id=$1 AND ii.product_id=$2`, storeID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ii, err
}

func (r *inventoryPostgres) updateItem(ctx context.Context, storeID, productID uuid.UUID, price string, quantity int) (*InventoryItem, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE inventory_item SET price=$1, quantity=$2, updated_at=now()
WHERE store_id=$3 AND product_id=$4`, price, quantity, storeID, productID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.getItem(ctx, storeID, productID)
}

func (r *inventoryPostgres) UpsertItem(ctx context.Context, input UpsertItemInput) (*InventoryItem, error) {
	storeID, err := uuid.Parse(input.StoreID)
	if err != nil {
		return nil, nil
	}
	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		return nil, nil
	}
	price, err := AsMoneyString(input.Price)
	if err != nil {
		return nil, err
	}

	existing, err := r.getItem(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.updateItem(ctx, storeID, productID, price, input.Quantity)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO inventory_item (id, store_id, product_id, price, quantity)
VALUES ($1, $2, $3, $4, $5)`, uuid.New(), storeID, productID, price, input.Quantity)
	if err != nil {
		// Store or product deleted between the caller's checks and here.
		if isForeignKeyViolation(err) {
			return nil, nil
		}
		// Lost the insert race: apply our payload on the winner's row.
		if isUniqueViolation(err) {
			return r.updateItem(ctx, storeID, productID, price, input.Quantity)
		}
		return nil, err
	}
	return r.getItem(ctx, storeID, productID)
}

func (r *inventoryPostgres) DeleteItem(ctx context.Context, key ItemKey) (bool, error) {
	storeID, err := uuid.Parse(key.StoreID)
	if err != nil {
		return false, nil
	}
	productID, err := uuid.Parse(key.ProductID)
	if err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM inventory_item WHERE store_id=$1 AND product_id=$2`, storeID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *inventoryPostgres) StoreSummary(ctx context.Context, storeID string) (*StoreInventorySummary, error) {
	uid, err := uuid.Parse(storeID)
	if err != nil {
		return nil, nil
	}
	store, err := scanStore(r.db.QueryRowContext(ctx, `
SELECT id, name, location, created_at, updated_at FROM store WHERE id=$1`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summary := &StoreInventorySummary{Store: store}
	var totalValue string
	err = r.db.QueryRowContext(ctx, `
SELECT count(ii.id),
       COALESCE(SUM(ii.quantity), 0),
       COALESCE(SUM(ii.quantity * ii.price), 0),
       COALESCE(SUM(CASE WHEN ii.quantity <= $2 THEN 1 ELSE 0 END), 0)
FROM inventory_item ii
WHERE ii.store_id=$1`, uid, lowStockThreshold).
		Scan(&summary.TotalSkus, &summary.TotalQuantity, &totalValue, &summary.LowStockCount)
	if err != nil {
		return nil, err
	}
	summary.TotalValue, err = AsMoneyString(totalValue)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *inventoryPostgres) ListStoreIDsForProduct(ctx context.Context, productID string) ([]string, error) {
	uid, err := uuid.Parse(productID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT store_id FROM inventory_item WHERE product_id=$1 ORDER BY store_id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}
	return ids, rows.Err()
}

func (r *inventoryPostgres) HasProductNameConflictInStore(ctx context.Context, storeID, productName, excludeProductID string) (bool, error) {
	sid, err := uuid.Parse(storeID)
	if err != nil {
		return false, nil
	}
	pid, err := uuid.Parse(excludeProductID)
	if err != nil {
		return false, nil
	}
	var conflict bool
	err = r.db.QueryRowContext(ctx, `
SELECT EXISTS (
  SELECT 1 FROM inventory_item ii
  JOIN product p ON p.id = ii.product_id
  WHERE ii.store_id=$1 AND p.name=$2 AND p.id <> $3
)`, sid, productName, pid).Scan(&conflict)
	if err != nil {
		return false, err
	}
	return conflict, nil
}
