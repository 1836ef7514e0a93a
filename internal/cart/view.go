package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/product"
)

// ProductLookup resolves products by id. product.Service satisfies it.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	// ListByIDs returns the products that still exist among ids.
	ListByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// ItemView is a cart line joined with the product it currently points at.
type ItemView struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	// Missing is set when the product no longer exists; the product fields are then empty.
	Missing     bool            `json:"missing,omitempty"`
	Title       string          `json:"title,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Condition   string          `json:"condition,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	IsAvailable bool            `json:"isAvailable"`
	SellerID    string          `json:"sellerId,omitempty"`
}

type View struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []ItemView      `json:"items"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Total     decimal.Decimal `json:"-"`
}

// ComputeTotal joins c with the current catalog in one batch read and sums
// quantity × price over the items whose product still resolves. The total is
// never stored on the cart.
func ComputeTotal(ctx context.Context, c Cart, lookup ProductLookup) (View, error) {
	v := View{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]ItemView, 0, len(c.Items)),
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
		Total:     decimal.Zero,
	}

	if len(c.Items) == 0 {
		return v, nil
	}
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := lookup.ListByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}
	products := product.ByID(found)

	for _, it := range c.Items {
		iv := ItemView{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, AddedAt: it.AddedAt}

		p, ok := products[it.ProductID]
		if !ok {
			iv.Missing = true
		} else {
			iv.Title = p.Title
			iv.Price = p.Price
			iv.Condition = p.Condition
			iv.ImageURL = p.ImageURL
			iv.IsAvailable = p.IsAvailable
			iv.SellerID = p.SellerID
			v.Total = v.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		v.Items = append(v.Items, iv)
	}
	return v, nil
}
