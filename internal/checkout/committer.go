package checkout

import (
	"context"
	"database/sql"

	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/cart"
	"github.com/wichananm65/thrift-market/internal/database"
	"github.com/wichananm65/thrift-market/internal/order"
)

// PostgresCommitter applies a checkout in a single transaction. The cart row
// is locked first so concurrent commits for the same cart queue behind it.
type PostgresCommitter struct {
	db *sql.DB
}

func NewPostgresCommitter(db *sql.DB) *PostgresCommitter {
	return &PostgresCommitter{db: db}
}

func (p *PostgresCommitter) Commit(ctx context.Context, c Commit) (order.Order, error) {
	err := database.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		if err := cart.ClearAtVersion(ctx, tx, c.CartID, c.CartVersion); err != nil {
			return err
		}
		return order.Insert(ctx, tx, c.Order)
	})
	if err != nil {
		return order.Order{}, apperr.Storage("commit checkout", err)
	}
	return c.Order, nil
}

// OrderStore can hold an order back from readers until the cart is cleared.
// order.InMemoryRepository satisfies it.
type OrderStore interface {
	Stage(ctx context.Context, o order.Order) error
	Publish(ctx context.Context, id string)
	Discard(ctx context.Context, id string)
}

type CartClearer interface {
	ClearIfVersion(ctx context.Context, cartID string, version int64) error
}

// MemoryCommitter pairs the in-memory stores. It has no transaction, so the
// order is staged first, published once the cart is cleared and discarded if
// the clear fails. Readers never see a staged order. Callers must hold the
// per-user checkout lock.
type MemoryCommitter struct {
	orders OrderStore
	carts  CartClearer
}

func NewMemoryCommitter(orders OrderStore, carts CartClearer) *MemoryCommitter {
	return &MemoryCommitter{orders: orders, carts: carts}
}

func (m *MemoryCommitter) Commit(ctx context.Context, c Commit) (order.Order, error) {
	if err := m.orders.Stage(ctx, c.Order); err != nil {
		return order.Order{}, err
	}
	if err := m.carts.ClearIfVersion(ctx, c.CartID, c.CartVersion); err != nil {
		m.orders.Discard(ctx, c.Order.ID)
		return order.Order{}, err
	}
	m.orders.Publish(ctx, c.Order.ID)
	return c.Order, nil
}
