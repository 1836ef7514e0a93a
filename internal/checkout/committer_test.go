package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/order"
)

func newCommit(t *testing.T) Commit {
	t.Helper()
	o, err := order.New("buyer", []order.Item{
		{ProductID: "p1", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("100")},
		{ProductID: "p2", Quantity: 1, PriceAtPurchase: decimal.RequireFromString("50")},
	}, time.Now())
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	return Commit{UserID: "buyer", CartID: "cart-1", CartVersion: 4, Order: o}
}

func TestPostgresCommitter_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	in := newCommit(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM carts WHERE id = \\$1 FOR UPDATE").WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectExec("DELETE FROM cart_items WHERE cart_id = \\$1").WithArgs("cart-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE carts SET version = version \\+ 1").WithArgs("cart-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(in.Order.ID, "buyer", sqlmock.AnyArg(), "pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	o, err := NewPostgresCommitter(db).Commit(context.Background(), in)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if o.ID != in.Order.ID || o.TotalAmount.StringFixed(2) != "250.00" {
		t.Fatalf("unexpected order %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCommitter_StaleVersionRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM carts").WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
	mock.ExpectRollback()

	_, err = NewPostgresCommitter(db).Commit(context.Background(), newCommit(t))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCommitter_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM carts").WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectExec("DELETE FROM cart_items").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE carts SET version").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err = NewPostgresCommitter(db).Commit(context.Background(), newCommit(t))
	if !apperr.Is(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCommitter_MissingCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM carts").WithArgs("cart-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	_, err = NewPostgresCommitter(db).Commit(context.Background(), newCommit(t))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// peekingClearer counts the buyer's visible orders at the moment the cart is cleared.
type peekingClearer struct {
	CartClearer
	orders  *order.InMemoryRepository
	visible int
}

func (p *peekingClearer) ClearIfVersion(ctx context.Context, cartID string, version int64) error {
	_, p.visible, _ = p.orders.ListByUser(ctx, "buyer", order.NewPage(1, 10))
	return p.CartClearer.ClearIfVersion(ctx, cartID, version)
}

func TestMemoryCommitter_OrderHiddenUntilCartCleared(t *testing.T) {
	f := newFixture()
	c := f.add(t, "buyer", "p1", 1)
	in := newCommit(t)
	in.CartID, in.CartVersion = c.ID, c.Version
	clearer := &peekingClearer{CartClearer: f.carts, orders: f.orders}

	o, err := NewMemoryCommitter(f.orders, clearer).Commit(context.Background(), in)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if clearer.visible != 0 {
		t.Fatalf("order was visible before the cart was cleared")
	}
	if _, err := f.orders.GetForUser(context.Background(), o.ID, "buyer"); err != nil {
		t.Fatalf("expected the committed order to be readable, got %v", err)
	}
}

func TestMemoryCommitter_StaleVersionLeavesNoOrder(t *testing.T) {
	f := newFixture()
	c := f.add(t, "buyer", "p1", 1)
	in := newCommit(t)
	in.CartID, in.CartVersion = c.ID, c.Version-1

	if _, err := NewMemoryCommitter(f.orders, f.carts).Commit(context.Background(), in); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.orders.GetByID(context.Background(), in.Order.ID); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected the staged order to be discarded, got %v", err)
	}
	if n := f.orderCount(t, "buyer"); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
}
