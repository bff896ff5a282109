package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type productPostgres struct{ db *sql.DB }

// NewProductPostgresRepository returns a ProductRepository backed by Postgres.
func NewProductPostgresRepository(db *sql.DB) ProductRepository { return &productPostgres{db: db} }

func scanProduct(row rowScanner) (*Product, error) {
	p := &Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productPostgres) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
SELECT id, name, category, created_at, updated_at FROM product WHERE id=$1`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *productPostgres) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	p := &Product{ID: uuid.New(), Name: input.Name, Category: input.Category}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO product (id, name, category) VALUES ($1, $2, $3)
RETURNING created_at, updated_at`, p.ID, p.Name, p.Category).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productPostgres) Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}
	if input.Name != nil {
		current.Name = *input.Name
	}
	if input.Category != nil {
		current.Category = *input.Category
	}
	err = r.db.QueryRowContext(ctx, `
UPDATE product SET name=$1, category=$2, updated_at=now() WHERE id=$3
RETURNING updated_at`, current.Name, current.Category, uid).
		Scan(&current.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return current, nil
}
