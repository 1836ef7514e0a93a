package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertOrderQuery = `INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	// items are written in one statement, positions preserve cart order
	insertOrderItemsQuery = `INSERT INTO order_items (order_id, position, product_id, quantity, price_at_purchase)
        SELECT $1, t.position, t.product_id, t.quantity, t.price
        FROM unnest($2::int[], $3::text[], $4::int[], $5::numeric[]) AS t(position, product_id, quantity, price)`

	listOrdersQuery = `SELECT o.id, o.total_amount, o.status, o.created_at, o.updated_at,
            (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
        FROM orders o
        WHERE o.user_id = $1
        ORDER BY o.created_at DESC, o.id DESC
        LIMIT $2 OFFSET $3`

	countOrdersQuery = `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	getOrderQuery = `SELECT id, user_id, total_amount, status, created_at, updated_at FROM orders WHERE id = $1`

	getOrderForUserQuery = `SELECT id, user_id, total_amount, status, created_at, updated_at FROM orders WHERE id = $1 AND user_id = $2`

	getOrderItemsQuery = `SELECT product_id, quantity, price_at_purchase FROM order_items WHERE order_id = $1 ORDER BY position`

	updateOrderStatusQuery = `UPDATE orders SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o Order) (Order, error) {
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return Insert(ctx, tx, o)
	})
	if err != nil {
		return Order{}, apperr.Storage("create order", err)
	}
	return o, nil
}

// Insert writes o and its items using q, which is normally a transaction owned
// by the caller.
func Insert(ctx context.Context, q database.Querier, o Order) error {
	if _, err := q.ExecContext(ctx, insertOrderQuery, o.ID, o.UserID, o.TotalAmount, string(o.Status), o.CreatedAt, o.UpdatedAt); err != nil {
		return apperr.Storage("insert order", err)
	}

	positions := make([]int64, len(o.Items))
	productIDs := make([]string, len(o.Items))
	quantities := make([]int64, len(o.Items))
	prices := make([]string, len(o.Items))
	for i, it := range o.Items {
		positions[i] = int64(i)
		productIDs[i] = it.ProductID
		quantities[i] = int64(it.Quantity)
		prices[i] = it.PriceAtPurchase.String()
	}
	if _, err := q.ExecContext(ctx, insertOrderItemsQuery, o.ID,
		pq.Array(positions), pq.Array(productIDs), pq.Array(quantities), pq.Array(prices)); err != nil {
		return apperr.Storage("insert order items", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, page Page) ([]Summary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countOrdersQuery, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count orders", err)
	}

	rows, err := r.db.QueryContext(ctx, listOrdersQuery, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, apperr.Storage("list orders", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		var status string
		if err := rows.Scan(&s.ID, &s.TotalAmount, &status, &s.CreatedAt, &s.UpdatedAt, &s.ItemCount); err != nil {
			return nil, 0, apperr.Storage("scan order", err)
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage("iterate orders", err)
	}
	return out, total, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (Order, error) {
	return r.get(ctx, getOrderForUserQuery, id, userID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Order, error) {
	return r.get(ctx, getOrderQuery, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...any) (Order, error) {
	var o Order
	var status string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, apperr.Storage("get order", err)
	}
	o.Status = Status(status)

	rows, err := r.db.QueryContext(ctx, getOrderItemsQuery, o.ID)
	if err != nil {
		return Order{}, apperr.Storage("get order items", err)
	}
	defer rows.Close()

	o.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return Order{}, apperr.Storage("scan order item", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, apperr.Storage("iterate order items", err)
	}
	return o, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Order, error) {
	res, err := r.db.ExecContext(ctx, updateOrderStatusQuery, id, string(from), string(to), at.UTC())
	if err != nil {
		return Order{}, apperr.Storage("update order status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return Order{}, err
		}
		return Order{}, apperr.Storage("update order status", apperr.ErrConflict)
	}
	return r.GetByID(ctx, id)
}
