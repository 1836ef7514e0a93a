package product

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/category"
	"golang.org/x/sync/singleflight"
)

// CategoryLookup resolves a category id. category.Service satisfies it.
type CategoryLookup interface {
	GetByID(ctx context.Context, id int) (category.Category, error)
}

// Service is the catalog collaborator used by the cart, checkout and order packages.
type Service struct {
	repo       Repository
	categories CategoryLookup
	flight     singleflight.Group
}

type Option func(*Service)

// WithCategories makes Create and Update reject category ids that do not exist.
func WithCategories(c CategoryLookup) Option {
	return func(s *Service) { s.categories = c }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	if f.CategoryID < 0 {
		return nil, apperr.Validation("category id must be a positive integer")
	}
	return s.repo.List(ctx, f)
}

// GetByID shares one repository read between concurrent callers asking for the
// same id. Results are never cached past the in-flight call, so every new call
// observes the current price and availability.
func (s *Service) GetByID(ctx context.Context, id string) (Product, error) {
	ch := s.flight.DoChan(id, func() (any, error) {
		return s.repo.GetByID(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return Product{}, apperr.Storage("get product", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product), nil
	}
}

func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// Create lists a new product on behalf of sellerID.
func (s *Service) Create(ctx context.Context, sellerID string, p Product) (Product, error) {
	p.ID = ""
	p.SellerID = sellerID
	if p.ImageURL == "" {
		p.ImageURL = DefaultImage
	}
	if err := s.validate(ctx, p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

// Patch carries the fields of an update; nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	IsAvailable *bool
	Condition   *string
	ImageURL    *string
	// CategoryID set to zero removes the category.
	CategoryID *int
}

// Update applies patch to a product owned by sellerID. Products owned by someone
// else are reported as not found.
func (s *Service) Update(ctx context.Context, sellerID, id string, patch Patch) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.SellerID != sellerID {
		return Product{}, ErrNotFound
	}

	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
	}
	if patch.Condition != nil {
		p.Condition = *patch.Condition
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if err := s.validate(ctx, p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a product owned by sellerID. Carts that still reference it keep
// their items; the read views flag them as missing.
func (s *Service) Delete(ctx context.Context, sellerID, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.SellerID != sellerID {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.CategoryID == 0 || s.categories == nil {
		return nil
	}
	_, err := s.categories.GetByID(ctx, p.CategoryID)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.Validation("unknown category %d", p.CategoryID)
	}
	return err
}
