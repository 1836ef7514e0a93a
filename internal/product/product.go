package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
)

// Product is a listed second-hand item. Only its seller may change it.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"isAvailable"`
	SellerID    string          `json:"sellerId"`
	Condition   string          `json:"condition"`
	ImageURL    string          `json:"imageUrl"`
	// CategoryID is zero for an uncategorized listing.
	CategoryID  int             `json:"categoryId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Conditions lists the accepted values for Product.Condition.
var Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

// DefaultImage is used when a listing is created without an image.
const DefaultImage = "placeholder.jpg"

func (p Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return apperr.Validation("title is required")
	}
	if len(p.Title) > 200 {
		return apperr.Validation("title must not exceed 200 characters")
	}
	if len(p.Description) > 1000 {
		return apperr.Validation("description must not exceed 1000 characters")
	}
	if p.Price.IsNegative() {
		return apperr.Validation("price must be a positive number")
	}
	if p.CategoryID < 0 {
		return apperr.Validation("category id must be a positive integer")
	}
	if p.Condition != "" && !validCondition(p.Condition) {
		return apperr.Validation("invalid product condition")
	}
	return nil
}

// ByID indexes ps by product id.
func ByID(ps []Product) map[string]Product {
	out := make(map[string]Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out
}

func validCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}
