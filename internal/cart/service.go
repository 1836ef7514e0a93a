package cart

import (
	"context"
	"strings"

	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/logger"
	"github.com/wichananm65/thrift-market/internal/product"
	"go.uber.org/zap"
)

type Service struct {
	repo    Repository
	catalog ProductLookup
	log     *zap.Logger
}

func NewService(repo Repository, catalog ProductLookup, log *zap.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, log: logger.OrNop(log)}
}

func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// GetCart returns the user's cart joined with current product data, creating
// an empty cart on first access.
func (s *Service) GetCart(ctx context.Context, userID string) (View, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return ComputeTotal(ctx, c, s.catalog)
}

// AddItem adds qty of productID, accumulating onto an existing line up to
// MaxQuantity. The product must exist and be available at the time of the call.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return Cart{}, apperr.Validation("productId is required")
	}
	if err := validQuantity(qty); err != nil {
		return Cart{}, err
	}

	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Cart{}, product.ErrNotFound
		}
		return Cart{}, err
	}
	if !p.IsAvailable {
		return Cart{}, apperr.Unavailable(productID)
	}

	c, err := s.repo.AddItem(ctx, userID, productID, qty)
	if err != nil {
		return Cart{}, err
	}
	s.log.Debug("cart item added", zap.String("user_id", userID), zap.String("product_id", productID), zap.Int("quantity", qty))
	return c, nil
}

// UpdateItemQuantity sets the quantity of one line verbatim.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID string, qty int) (Cart, error) {
	if err := validQuantity(qty); err != nil {
		return Cart{}, err
	}
	return s.repo.SetItemQuantity(ctx, userID, itemID, qty)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	return s.repo.RemoveItem(ctx, userID, itemID)
}

// Clear empties the user's cart. It fails only when the user has no cart yet.
func (s *Service) Clear(ctx context.Context, userID string) (Cart, error) {
	return s.repo.Clear(ctx, userID)
}

// View joins an already loaded cart with current product data.
func (s *Service) View(ctx context.Context, c Cart) (View, error) {
	return ComputeTotal(ctx, c, s.catalog)
}
