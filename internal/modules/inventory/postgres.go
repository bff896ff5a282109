package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

const itemColumns = `
ii.id, ii.price, ii.quantity, ii.created_at, ii.updated_at,
s.id, s.name, s.location, s.created_at, s.updated_at,
p.id, p.name, p.category, p.created_at, p.updated_at`

const itemFrom = `
FROM inventory_item ii
JOIN store s ON s.id = ii.store_id
JOIN product p ON p.id = ii.product_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*InventoryItem, error) {
	ii := &InventoryItem{Store: &Store{}, Product: &Product{}}
	var location sql.NullString
	err := row.Scan(
		&ii.ID, &ii.Price, &ii.Quantity, &ii.CreatedAt, &ii.UpdatedAt,
		&ii.Store.ID, &ii.Store.Name, &location, &ii.Store.CreatedAt, &ii.Store.UpdatedAt,
		&ii.Product.ID, &ii.Product.Name, &ii.Product.Category, &ii.Product.CreatedAt, &ii.Product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		ii.Store.Location = &location.String
	}
	return ii, nil
}

// ---- Store ----

type storePostgres struct{ db *sql.DB }

// NewStorePostgresRepository returns a StoreRepository backed by Postgres.
func NewStorePostgresRepository(db *sql.DB) StoreRepository { return &storePostgres{db: db} }

func scanStore(row rowScanner) (*Store, error) {
	s := &Store{}
	var location sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &location, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if location.Valid {
		s.Location = &location.String
	}
	return s, nil
}

func (r *storePostgres) List(ctx context.Context) ([]*Store, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, location, created_at, updated_at FROM store ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []*Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *storePostgres) GetByID(ctx context.Context, id string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	s, err := scanStore(r.db.QueryRowContext(ctx, `
SELECT id, name, location, created_at, updated_at FROM store WHERE id=$1`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *storePostgres) GetByName(ctx context.Context, name string) (*Store, error) {
	s, err := scanStore(r.db.QueryRowContext(ctx, `
SELECT id, name, location, created_at, updated_at FROM store WHERE name=$1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *storePostgres) Create(ctx context.Context, input CreateStoreInput) (*Store, error) {
	existing, err := r.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalidField("Store name must be unique", "name")
	}

	s := &Store{ID: uuid.New(), Name: input.Name, Location: input.Location}
	err = r.db.QueryRowContext(ctx, `
INSERT INTO store (id, name, location) VALUES ($1, $2, $3)
RETURNING created_at, updated_at`, s.ID, s.Name, s.Location).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		// Lost a create race; the constraint is authoritative.
		if isUniqueViolation(err) {
			return nil, invalidField("Store name must be unique", "name")
		}
		return nil, err
	}
	return s, nil
}

func (r *storePostgres) Update(ctx context.Context, id string, input UpdateStoreInput) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != current.Name {
		other, err := r.GetByName(ctx, *input.Name)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, invalidField("Store name must be unique", "name")
		}
		current.Name = *input.Name
	}
	if input.Location.Set {
		current.Location = input.Location.Value
	}

	err = r.db.QueryRowContext(ctx, `
UPDATE store SET name=$1, location=$2, updated_at=now() WHERE id=$3
RETURNING updated_at`, current.Name, current.Location, uid).
		Scan(&current.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, invalidField("Store name must be unique", "name")
		}
		return nil, err
	}
	return current, nil
}

func (r *storePostgres) Delete(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM store WHERE id=$1`, uid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *storePostgres) ListItems(ctx context.Context, storeID string) ([]*InventoryItem, error) {
	uid, err := uuid.Parse(storeID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+itemColumns+itemFrom+`
WHERE ii.store_id=$1
ORDER BY p.name, ii.id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InventoryItem
	for rows.Next() {
		ii, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ii)
	}
	return items, rows.Err()
}
