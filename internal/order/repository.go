package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/thrift-market/internal/apperr"
)

var (
	ErrNotFound error = apperr.NotFound("order not found")
)

type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	// ListByUser returns one page of the user's orders, newest first, and the
	// total number of orders the user has.
	ListByUser(ctx context.Context, userID string, page Page) ([]Summary, int, error)
	// GetForUser only resolves orders owned by userID.
	GetForUser(ctx context.Context, id, userID string) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	// UpdateStatus moves the order from one status to another. If the stored
	// status is no longer from, it fails with a storage error wrapping apperr.ErrConflict.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Order, error)
}

type storedOrder struct {
	Order
	seq int64
	// staged orders are hidden from every read until published.
	staged bool
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*storedOrder
	seq    int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[string]*storedOrder)}
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (r *InMemoryRepository) Create(_ context.Context, o Order) (Order, error) {
	if err := r.insert(o, false); err != nil {
		return Order{}, err
	}
	return clone(o), nil
}

// Stage stores o without making it visible. Publish reveals it and Discard
// backs it out. Together they stand in for a transaction around a checkout
// commit and are not part of Repository.
func (r *InMemoryRepository) Stage(_ context.Context, o Order) error {
	return r.insert(o, true)
}

func (r *InMemoryRepository) Publish(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.staged = false
	}
}

func (r *InMemoryRepository) Discard(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
}

func (r *InMemoryRepository) insert(o Order, staged bool) error {
	if err := o.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return apperr.Storage("create order", apperr.ErrConflict)
	}
	r.seq++
	r.orders[o.ID] = &storedOrder{Order: clone(o), seq: r.seq, staged: staged}
	return nil
}

// visible returns the published order with the given id. Callers hold r.mu.
func (r *InMemoryRepository) visible(id string) (*storedOrder, bool) {
	o, ok := r.orders[id]
	if !ok || o.staged {
		return nil, false
	}
	return o, true
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, page Page) ([]Summary, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mine := make([]*storedOrder, 0)
	for _, o := range r.orders {
		if o.UserID == userID && !o.staged {
			mine = append(mine, o)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].seq > mine[j].seq
	})

	out := make([]Summary, 0, page.Limit)
	for i := page.Offset(); i < len(mine) && len(out) < page.Limit; i++ {
		out = append(out, mine[i].Summary())
	}
	return out, len(mine), nil
}

func (r *InMemoryRepository) GetForUser(_ context.Context, id, userID string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.visible(id)
	if !ok || o.UserID != userID {
		return Order{}, ErrNotFound
	}
	return clone(o.Order), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.visible(id)
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o.Order), nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.visible(id)
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status != from {
		return Order{}, apperr.Storage("update order status", apperr.ErrConflict)
	}
	o.Status = to
	o.UpdatedAt = at.UTC()
	return clone(o.Order), nil
}
