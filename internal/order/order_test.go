package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusPending, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusConfirmed, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() || StatusShipped.Terminal() {
		t.Fatalf("unexpected terminal statuses")
	}
	if _, ok := ParseStatus("refunded"); ok {
		t.Fatalf("unknown status should not parse")
	}
}

func TestNew_ComputesTotal(t *testing.T) {
	o, err := New("u1", []Item{
		{ProductID: "p1", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("100")},
		{ProductID: "p2", Quantity: 1, PriceAtPurchase: decimal.RequireFromString("50")},
	}, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if o.TotalAmount.StringFixed(2) != "250.00" || o.Status != StatusPending || o.ID == "" {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.Summary().ItemCount != 2 {
		t.Fatalf("expected item count 2")
	}
}

func TestValidate(t *testing.T) {
	good := Order{
		UserID:      "u1",
		Status:      StatusPending,
		Items:       []Item{{ProductID: "p1", Quantity: 1, PriceAtPurchase: decimal.NewFromInt(10)}},
		TotalAmount: decimal.NewFromInt(10),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}

	noItems := good
	noItems.Items = nil
	noItems.TotalAmount = decimal.Zero

	wrongTotal := good
	wrongTotal.TotalAmount = decimal.NewFromInt(11)

	zeroQty := good
	zeroQty.Items = []Item{{ProductID: "p1", Quantity: 0, PriceAtPurchase: decimal.NewFromInt(10)}}

	for name, o := range map[string]Order{"no items": noItems, "wrong total": wrongTotal, "zero quantity": zeroQty} {
		if err := o.Validate(); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		page, limit int
		want        Page
	}{
		{0, 0, Page{1, DefaultPageSize}},
		{3, 10, Page{3, 10}},
		{-1, 1000, Page{1, MaxPageSize}},
	}
	for _, tt := range tests {
		if got := NewPage(tt.page, tt.limit); got != tt.want {
			t.Errorf("NewPage(%d, %d) = %+v, want %+v", tt.page, tt.limit, got, tt.want)
		}
	}
	if NewPage(3, 10).Offset() != 20 {
		t.Fatalf("unexpected offset")
	}
}
