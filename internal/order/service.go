package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/logger"
	"github.com/wichananm65/thrift-market/internal/product"
	"go.uber.org/zap"
)

// ProductLookup resolves the products behind order lines in one read.
// product.Service satisfies it.
type ProductLookup interface {
	ListByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

type Service struct {
	repo    Repository
	catalog ProductLookup
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, catalog ProductLookup, log *zap.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, log: logger.OrNop(log), now: time.Now}
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type Listing struct {
	Orders     []Summary  `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// List returns a page of the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (Listing, error) {
	p := NewPage(page, limit)
	orders, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		Orders: orders,
		Pagination: Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: (total + p.Limit - 1) / p.Limit,
		},
	}, nil
}

// ItemDetail is an order line joined with the product it was bought from.
type ItemDetail struct {
	Item
	Subtotal decimal.Decimal `json:"subtotal"`
	Title    string          `json:"title,omitempty"`
	SellerID string          `json:"sellerId,omitempty"`
	ImageURL string          `json:"imageUrl,omitempty"`
	// Missing is set when the product has since been removed from the catalog.
	Missing bool `json:"missing,omitempty"`
}

type Detail struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	Items       []ItemDetail    `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Get returns one of the user's orders with current product details. Prices
// and totals always come from the order snapshot.
func (s *Service) Get(ctx context.Context, userID, orderID string) (Detail, error) {
	o, err := s.repo.GetForUser(ctx, orderID, userID)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Items:       make([]ItemDetail, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	products, err := s.products(ctx, o)
	if err != nil {
		return Detail{}, err
	}
	for _, it := range o.Items {
		item := ItemDetail{Item: it, Subtotal: it.Subtotal()}
		p, ok := products[it.ProductID]
		if !ok {
			item.Missing = true
		} else {
			item.Title = p.Title
			item.SellerID = p.SellerID
			item.ImageURL = p.ImageURL
		}
		d.Items = append(d.Items, item)
	}
	return d, nil
}

// UpdateStatus lets a seller of any item in the order move it along the status
// machine. Products that no longer exist do not make the caller a seller.
func (s *Service) UpdateStatus(ctx context.Context, callerID, orderID, status string) (Order, error) {
	to, ok := ParseStatus(status)
	if !ok {
		return Order{}, apperr.Validation("invalid order status %q", status)
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	seller, err := s.isSeller(ctx, callerID, o)
	if err != nil {
		return Order{}, err
	}
	if !seller {
		s.log.Info("status update refused", zap.String("order_id", orderID), zap.String("caller_id", callerID))
		return Order{}, apperr.Forbidden("not authorized to update this order")
	}

	if o.Status.Terminal() {
		return Order{}, apperr.Validation("order is already %s", o.Status)
	}
	if !o.Status.CanTransitionTo(to) {
		return Order{}, apperr.Validation("cannot change order status from %s to %s", o.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, o.ID, o.Status, to, s.now())
	if err != nil {
		return Order{}, err
	}
	s.log.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
		zap.String("caller_id", callerID),
	)
	return updated, nil
}

func (s *Service) isSeller(ctx context.Context, callerID string, o Order) (bool, error) {
	products, err := s.products(ctx, o)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if p.SellerID == callerID {
			return true, nil
		}
	}
	return false, nil
}

// products loads the products still in the catalog for the lines of o.
func (s *Service) products(ctx context.Context, o Order) (map[string]product.Product, error) {
	ids := make([]string, 0, len(o.Items))
	seen := make(map[string]bool, len(o.Items))
	for _, it := range o.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	found, err := s.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return product.ByID(found), nil
}
