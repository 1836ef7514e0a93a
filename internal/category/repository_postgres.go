package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/database"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	listCategoriesQuery = `SELECT id, name, description FROM categories ORDER BY name LIMIT $1`
	getCategoryQuery    = `SELECT id, name, description FROM categories WHERE id = $1`
	seedCategoryQuery   = `INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)
        ON CONFLICT DO NOTHING`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery, limit)
	if err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, apperr.Storage("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterate categories", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, getCategoryQuery, id).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, apperr.Storage("get category", err)
	}
	return c, nil
}

// Seed inserts cats in one transaction. Rows that already exist are kept as they are.
func (r *PostgresRepository) Seed(ctx context.Context, cats []Category) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range cats {
			if _, err := tx.ExecContext(ctx, seedCategoryQuery, c.ID, c.Name, c.Description); err != nil {
				return apperr.Storage("seed category", err)
			}
		}
		return nil
	})
}
