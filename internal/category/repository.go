package category

import (
	"context"
	"sort"
	"sync"

	"github.com/wichananm65/thrift-market/internal/apperr"
)

var ErrNotFound error = apperr.NotFound("category not found")

// Repository provides access to categories.
type Repository interface {
	// List returns up to limit categories ordered by name.
	List(ctx context.Context, limit int) ([]Category, error)
	GetByID(ctx context.Context, id int) (Category, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Category
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{storage: append([]Category(nil), seed...)}
	sort.SliceStable(r.storage, func(i, j int) bool { return r.storage[i].Name < r.storage[j].Name })
	return r
}

func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.storage)
	if limit > 0 && limit < n {
		n = limit
	}
	return append([]Category{}, r.storage[:n]...), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, ErrNotFound
}
