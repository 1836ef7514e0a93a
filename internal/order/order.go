package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// next lists the statuses each status may move to.
var next = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := next[st]
	return st, ok
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return len(next[s]) == 0
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}

// Item is a line of an order with the price captured at checkout.
type Item struct {
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is immutable once created except for Status and UpdatedAt.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	Items       []Item          `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// New builds a pending order whose total is the sum of the item subtotals.
func New(userID string, items []Item, now time.Time) (Order, error) {
	o := Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		TotalAmount: sum(items),
		Status:      StatusPending,
		Items:       append([]Item(nil), items...),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) Validate() error {
	if o.UserID == "" {
		return apperr.Validation("order has no owner")
	}
	if len(o.Items) == 0 {
		return apperr.Validation("order has no items")
	}
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return apperr.Validation("quantity must be a positive integer")
		}
		if it.PriceAtPurchase.IsNegative() {
			return apperr.Validation("price must not be negative")
		}
	}
	if !o.TotalAmount.Equal(sum(o.Items)) {
		return apperr.Validation("total amount does not match items")
	}
	if _, ok := next[o.Status]; !ok {
		return apperr.Validation("invalid order status %q", o.Status)
	}
	return nil
}

func sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Summary is the list projection of an order.
type Summary struct {
	ID          string          `json:"id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	ItemCount   int             `json:"itemCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (o Order) Summary() Summary {
	return Summary{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		ItemCount:   len(o.Items),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
