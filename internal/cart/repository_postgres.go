package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getCartByUserQuery = `SELECT id, user_id, version, created_at, updated_at FROM carts WHERE user_id = $1`

	getCartItemsQuery = `SELECT id, product_id, quantity, added_at FROM cart_items
        WHERE cart_id = $1
        ORDER BY added_at, id`

	insertCartQuery = `INSERT INTO carts (id, user_id, version, created_at, updated_at)
        VALUES ($1, $2, 0, now(), now())`

	upsertCartItemQuery = `INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
        VALUES ($1, $2, $3, $4, clock_timestamp())
        ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
        WHERE cart_items.quantity + EXCLUDED.quantity <= $5`

	setCartItemQuantityQuery = `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`

	deleteCartItemQuery = `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`

	clearCartItemsQuery = `DELETE FROM cart_items WHERE cart_id = $1`

	bumpCartVersionQuery = `UPDATE carts SET version = version + 1, updated_at = now() WHERE id = $1`

	lockCartVersionQuery = `SELECT version FROM carts WHERE id = $1 FOR UPDATE`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (Cart, error) {
	return load(ctx, r.db, userID)
}

// GetOrCreate inserts a cart on first access. Two concurrent first accesses race
// on the user_id unique constraint; the loser reads the winner's row.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (Cart, error) {
	c, err := load(ctx, r.db, userID)
	if !errors.Is(err, ErrNotFound) {
		return c, err
	}

	if _, err := r.db.ExecContext(ctx, insertCartQuery, uuid.NewString(), userID); err != nil && !database.IsUniqueViolation(err) {
		return Cart{}, apperr.Storage("create cart", err)
	}
	return load(ctx, r.db, userID)
}

func (r *PostgresRepository) AddItem(ctx context.Context, userID, productID string, qty int) (Cart, error) {
	c, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	err = r.withCartLocked(ctx, c.ID, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, upsertCartItemQuery, uuid.NewString(), c.ID, productID, qty, MaxQuantity)
		if err != nil {
			return false, err
		}
		// the conflict update is skipped when the sum would pass MaxQuantity
		if n, _ := res.RowsAffected(); n == 0 {
			return false, quantityExceeded(productID)
		}
		return true, nil
	})
	if err != nil {
		return Cart{}, apperr.Storage("add cart item", err)
	}
	return load(ctx, r.db, userID)
}

func (r *PostgresRepository) SetItemQuantity(ctx context.Context, userID, itemID string, qty int) (Cart, error) {
	return r.mutateItem(ctx, userID, "update cart item", setCartItemQuantityQuery, itemID, qty)
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	return r.mutateItem(ctx, userID, "remove cart item", deleteCartItemQuery, itemID)
}

// mutateItem runs a statement against one item of the user's cart; zero affected
// rows means the item is not in this cart.
func (r *PostgresRepository) mutateItem(ctx context.Context, userID, op, query string, args ...any) (Cart, error) {
	c, err := load(ctx, r.db, userID)
	if err != nil {
		return Cart{}, err
	}

	err = r.withCartLocked(ctx, c.ID, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, query, append([]any{c.ID}, args...)...)
		if err != nil {
			return false, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return false, ErrItemNotFound
		}
		return true, nil
	})
	if err != nil {
		return Cart{}, apperr.Storage(op, err)
	}
	return load(ctx, r.db, userID)
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) (Cart, error) {
	c, err := load(ctx, r.db, userID)
	if err != nil {
		return Cart{}, err
	}
	if c.IsEmpty() {
		return c, nil
	}

	err = r.withCartLocked(ctx, c.ID, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, clearCartItemsQuery, c.ID)
		if err != nil {
			return false, err
		}
		n, _ := res.RowsAffected()
		return n > 0, nil
	})
	if err != nil {
		return Cart{}, apperr.Storage("clear cart", err)
	}
	return load(ctx, r.db, userID)
}

// withCartLocked runs fn in a transaction that first locks the carts row, the
// same order ClearAtVersion uses, so item writes never interleave with a
// checkout commit on the same cart. The version is bumped when fn reports a change.
func (r *PostgresRepository) withCartLocked(ctx context.Context, cartID string, fn func(tx *sql.Tx) (bool, error)) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var version int64
		err := tx.QueryRowContext(ctx, lockCartVersionQuery, cartID).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		changed, err := fn(tx)
		if err != nil || !changed {
			return err
		}
		_, err = tx.ExecContext(ctx, bumpCartVersionQuery, cartID)
		return err
	})
}

// ClearAtVersion empties a cart inside the caller's transaction, provided the
// cart is still at version. The row lock it takes is held until q commits.
func ClearAtVersion(ctx context.Context, q database.Querier, cartID string, version int64) error {
	var current int64
	err := q.QueryRowContext(ctx, lockCartVersionQuery, cartID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return apperr.Storage("lock cart", err)
	}
	if current != version {
		return apperr.Storage("clear cart", apperr.ErrConflict)
	}

	if _, err := q.ExecContext(ctx, clearCartItemsQuery, cartID); err != nil {
		return apperr.Storage("clear cart", err)
	}
	if _, err := q.ExecContext(ctx, bumpCartVersionQuery, cartID); err != nil {
		return apperr.Storage("bump cart version", err)
	}
	return nil
}

func load(ctx context.Context, q database.Querier, userID string) (Cart, error) {
	var c Cart
	err := q.QueryRowContext(ctx, getCartByUserQuery, userID).Scan(&c.ID, &c.UserID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, apperr.Storage("get cart", err)
	}

	rows, err := q.QueryContext(ctx, getCartItemsQuery, c.ID)
	if err != nil {
		return Cart{}, apperr.Storage("get cart items", err)
	}
	defer rows.Close()

	c.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return Cart{}, apperr.Storage("scan cart item", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, apperr.Storage("iterate cart items", err)
	}
	return c, nil
}
