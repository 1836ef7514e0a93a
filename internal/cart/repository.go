package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/thrift-market/internal/apperr"
)

var (
	ErrNotFound     error = apperr.NotFound("cart not found")
	ErrItemNotFound error = apperr.NotFound("cart item not found")
)

// Repository stores carts. Item operations are always scoped by userID, so an
// item id from another user's cart resolves to ErrItemNotFound.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (Cart, error)
	GetOrCreate(ctx context.Context, userID string) (Cart, error)
	// AddItem increments the quantity of an existing line for productID or appends a new one.
	AddItem(ctx context.Context, userID, productID string, qty int) (Cart, error)
	SetItemQuantity(ctx context.Context, userID, itemID string, qty int) (Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (Cart, error)
	Clear(ctx context.Context, userID string) (Cart, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byUser map[string]*Cart
	now    func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byUser: make(map[string]*Cart), now: time.Now}
}

func (r *InMemoryRepository) GetByUser(_ context.Context, userID string) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return c.clone(), nil
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, userID string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(userID).clone(), nil
}

func (r *InMemoryRepository) getOrCreateLocked(userID string) *Cart {
	if c, ok := r.byUser[userID]; ok {
		return c
	}
	now := r.now().UTC()
	c := &Cart{ID: uuid.NewString(), UserID: userID, Items: []Item{}, CreatedAt: now, UpdatedAt: now}
	r.byUser[userID] = c
	return c
}

func (r *InMemoryRepository) AddItem(_ context.Context, userID, productID string, qty int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.getOrCreateLocked(userID)
	now := r.now().UTC()

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Quantity > MaxQuantity-qty {
				return Cart{}, quantityExceeded(productID)
			}
			c.Items[i].Quantity += qty
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, Item{ID: uuid.NewString(), ProductID: productID, Quantity: qty, AddedAt: now})
	}
	r.touch(c, now)
	return c.clone(), nil
}

func (r *InMemoryRepository) SetItemQuantity(_ context.Context, userID, itemID string, qty int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = qty
			r.touch(c, r.now().UTC())
			return c.clone(), nil
		}
	}
	return Cart{}, ErrItemNotFound
}

func (r *InMemoryRepository) RemoveItem(_ context.Context, userID, itemID string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			r.touch(c, r.now().UTC())
			return c.clone(), nil
		}
	}
	return Cart{}, ErrItemNotFound
}

// Clear empties the cart. Clearing an already empty cart leaves its version unchanged.
func (r *InMemoryRepository) Clear(_ context.Context, userID string) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok {
		return Cart{}, ErrNotFound
	}
	if len(c.Items) > 0 {
		c.Items = []Item{}
		r.touch(c, r.now().UTC())
	}
	return c.clone(), nil
}

// ClearIfVersion empties the cart only when it is still at version. A stale
// version returns a storage error wrapping apperr.ErrConflict.
func (r *InMemoryRepository) ClearIfVersion(_ context.Context, cartID string, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUser {
		if c.ID != cartID {
			continue
		}
		if c.Version != version {
			return apperr.Storage("clear cart", apperr.ErrConflict)
		}
		c.Items = []Item{}
		r.touch(c, r.now().UTC())
		return nil
	}
	return ErrNotFound
}

func (r *InMemoryRepository) touch(c *Cart, now time.Time) {
	c.Version++
	c.UpdatedAt = now
}
