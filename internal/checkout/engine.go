// Package checkout turns a user's cart into an order.
//
// A checkout validates every cart line against the current catalog, snapshots
// prices into order items and then commits the new order and the emptied cart
// as one unit. The commit is guarded twice: a per-user lock serializes
// checkouts of the same user, and the committer rejects the write when the
// cart version changed after it was read. A rejected commit is retried once
// from validation.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/cart"
	"github.com/wichananm65/thrift-market/internal/lock"
	"github.com/wichananm65/thrift-market/internal/logger"
	"github.com/wichananm65/thrift-market/internal/order"
	"github.com/wichananm65/thrift-market/internal/product"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateValidating   State = "validating"
	StateSnapshotting State = "snapshotting"
	StateCommitting   State = "committing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

const maxAttempts = 2

type CartSource interface {
	GetByUser(ctx context.Context, userID string) (cart.Cart, error)
}

type Catalog interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Commit is what a Committer must apply atomically: insert Order and empty the
// cart, but only while the cart is still at CartVersion.
type Commit struct {
	UserID      string
	CartID      string
	CartVersion int64
	Order       order.Order
}

type Committer interface {
	Commit(ctx context.Context, c Commit) (order.Order, error)
}

type Options struct {
	// MaxConcurrent bounds the catalog lookups of one checkout. Defaults to 10.
	MaxConcurrent int
	// CommitTimeout bounds the commit phase, which ignores caller cancellation.
	// Defaults to 5s.
	CommitTimeout time.Duration
	Logger        *zap.Logger
}

type Engine struct {
	carts         CartSource
	catalog       Catalog
	committer     Committer
	locker        lock.Locker
	log           *zap.Logger
	now           func() time.Time
	maxConcurrent int
	commitTimeout time.Duration
}

func NewEngine(carts CartSource, catalog Catalog, committer Committer, locker lock.Locker, opts Options) *Engine {
	e := &Engine{
		carts:         carts,
		catalog:       catalog,
		committer:     committer,
		locker:        locker,
		log:           logger.OrNop(opts.Logger),
		now:           time.Now,
		maxConcurrent: opts.MaxConcurrent,
		commitTimeout: opts.CommitTimeout,
	}
	if e.maxConcurrent <= 0 {
		e.maxConcurrent = 10
	}
	if e.commitTimeout <= 0 {
		e.commitTimeout = 5 * time.Second
	}
	return e
}

// Checkout converts the user's cart into a pending order and empties the cart.
// On any error neither the cart nor the order ledger is changed.
func (e *Engine) Checkout(ctx context.Context, userID string) (order.Order, error) {
	unlock, err := e.locker.Lock(ctx, "checkout:"+userID)
	if err != nil {
		return order.Order{}, apperr.Storage("acquire checkout lock", err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		o, err := e.attempt(ctx, userID, attempt)
		if err == nil {
			return o, nil
		}
		if errors.Is(err, apperr.ErrConflict) && attempt < maxAttempts {
			e.log.Info("checkout conflict, retrying", zap.String("user_id", userID), zap.Int("attempt", attempt))
			continue
		}
		return order.Order{}, err
	}
}

func (e *Engine) attempt(ctx context.Context, userID string, attempt int) (o order.Order, err error) {
	log := e.log.With(zap.String("user_id", userID), zap.Int("attempt", attempt))
	defer func() {
		if err != nil {
			log.Debug("checkout state", zap.String("state", string(StateFailed)), zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
		}
	}()

	log.Debug("checkout state", zap.String("state", string(StateValidating)))
	c, err := e.carts.GetByUser(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}
	if c.IsEmpty() {
		return order.Order{}, apperr.EmptyCart()
	}
	products, err := e.resolve(ctx, c.Items)
	if err != nil {
		return order.Order{}, err
	}

	log.Debug("checkout state", zap.String("state", string(StateSnapshotting)))
	items := make([]order.Item, len(c.Items))
	for i, it := range c.Items {
		items[i] = order.Item{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: products[i].Price,
		}
	}
	pending, err := order.New(userID, items, e.now())
	if err != nil {
		return order.Order{}, err
	}

	// last point where the caller can still abandon the checkout
	if err := ctx.Err(); err != nil {
		return order.Order{}, apperr.Storage("checkout cancelled", err)
	}

	log.Debug("checkout state", zap.String("state", string(StateCommitting)), zap.Int64("cart_version", c.Version))
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commitTimeout)
	defer cancel()
	created, err := e.committer.Commit(cctx, Commit{UserID: userID, CartID: c.ID, CartVersion: c.Version, Order: pending})
	if err != nil {
		return order.Order{}, apperr.Storage("commit checkout", err)
	}

	log.Info("checkout completed",
		zap.String("state", string(StateDone)),
		zap.String("order_id", created.ID),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.TotalAmount.StringFixed(2)),
	)
	return created, nil
}

// resolve re-reads every product in the cart. Products that are gone or no
// longer available are collected, in cart order, into one UnavailableItems error.
func (e *Engine) resolve(ctx context.Context, items []cart.Item) ([]product.Product, error) {
	products := make([]product.Product, len(items))
	unavailable := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			p, err := e.catalog.GetByID(gctx, it.ProductID)
			if apperr.Is(err, apperr.KindNotFound) {
				unavailable[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			if !p.IsAvailable || p.Price.LessThan(decimal.Zero) {
				unavailable[i] = true
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Storage("resolve products", err)
	}

	var ids []string
	for i, bad := range unavailable {
		if bad {
			ids = append(ids, items[i].ProductID)
		}
	}
	if len(ids) > 0 {
		return nil, apperr.UnavailableItems(ids)
	}
	return products, nil
}
