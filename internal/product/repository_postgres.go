package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wichananm65/thrift-market/internal/apperr"
)

type PostgresRepository struct {
	db *sql.DB
}

const productColumns = `id, title, description, price, is_available, seller_id, condition, image_url, COALESCE(category_id, 0), created_at, updated_at`

const (
	listProductsQuery = `SELECT ` + productColumns + ` FROM products
        WHERE ($1 = FALSE OR is_available) AND ($2 = 0 OR category_id = $2)
        ORDER BY created_at DESC`

	getProductQuery = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listProductsByIDsQuery = `SELECT ` + productColumns + ` FROM products
        WHERE id = ANY($1::text[])
        ORDER BY array_position($1::text[], id)`

	insertProductQuery = `INSERT INTO products (id, title, description, price, is_available, seller_id, condition, image_url, category_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, 0), now(), now())
        RETURNING ` + productColumns

	updateProductQuery = `UPDATE products
        SET title = $2, description = $3, price = $4, is_available = $5, condition = $6, image_url = $7, category_id = NULLIF($8, 0), updated_at = now()
        WHERE id = $1
        RETURNING ` + productColumns

	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.IsAvailable, &p.SellerID, &p.Condition, &p.ImageURL, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, listProductsQuery, f.AvailableOnly, f.CategoryID)
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, apperr.Storage("get product", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, apperr.Storage("list products by id", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	out, err := scanProduct(r.db.QueryRowContext(ctx, insertProductQuery,
		p.ID, p.Title, p.Description, p.Price, p.IsAvailable, p.SellerID, p.Condition, p.ImageURL, p.CategoryID))
	if err != nil {
		return Product{}, apperr.Storage("create product", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	out, err := scanProduct(r.db.QueryRowContext(ctx, updateProductQuery,
		p.ID, p.Title, p.Description, p.Price, p.IsAvailable, p.Condition, p.ImageURL, p.CategoryID))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, apperr.Storage("update product", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return apperr.Storage("delete product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collect(rows *sql.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Storage("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate products", err)
	}
	return out, nil
}
