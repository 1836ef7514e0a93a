package cart

import (
	"time"

	"github.com/wichananm65/thrift-market/internal/apperr"
)

// MaxQuantity caps a single cart line, both when set directly and when
// accumulated by repeated adds.
const MaxQuantity = 10000

// Item is one product line in a cart. Quantity is always within 1..MaxQuantity.
type Item struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// Cart is the single cart a user owns. Version increases on every mutation and
// is compared at checkout commit time.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// clone returns a deep copy so callers never share the items slice with storage.
func (c Cart) clone() Cart {
	out := c
	out.Items = make([]Item, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

func validQuantity(qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return apperr.Validation("quantity must be between 1 and %d", MaxQuantity)
	}
	return nil
}

func quantityExceeded(productID string) error {
	return apperr.Validation("quantity of product %s would exceed %d", productID, MaxQuantity)
}
