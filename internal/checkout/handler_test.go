package checkout

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/thrift-market/internal/order"
)

func makeAppWithCheckoutHandler(f *fixture) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	NewHandler(f.engine(), nil).RegisterProtectedRoutes(app)
	return app
}

type checkoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Order order.Order `json:"order"`
	} `json:"data"`
	Error *struct {
		Kind       string   `json:"kind"`
		ProductIDs []string `json:"productIds"`
	} `json:"error"`
}

func postOrder(t *testing.T, app *fiber.App, userID string) (int, checkoutResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/orders", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body checkoutResponse
	b, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("invalid body %s: %v", string(b), err)
	}
	return res.StatusCode, body
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	f.add(t, "buyer", "p1", 2)
	f.add(t, "buyer", "p2", 1)
	app := makeAppWithCheckoutHandler(f)

	status, body := postOrder(t, app, "buyer")
	if status != fiber.StatusCreated || !body.Success {
		t.Fatalf("expected 201, got %d %+v", status, body)
	}
	if body.Data.Order.TotalAmount.StringFixed(2) != "250.00" || len(body.Data.Order.Items) != 2 {
		t.Fatalf("unexpected order %+v", body.Data.Order)
	}

	status, body = postOrder(t, app, "buyer")
	if status != fiber.StatusBadRequest || body.Error == nil || body.Error.Kind != "EMPTY_CART" {
		t.Fatalf("expected 400 EMPTY_CART on second checkout, got %d %+v", status, body)
	}
}

func TestCreateOrder_UnavailableItems(t *testing.T) {
	f := newFixture()
	f.add(t, "buyer", "p1", 1)
	f.add(t, "buyer", "p2", 1)
	f.setAvailable(t, "p2", false)
	app := makeAppWithCheckoutHandler(f)

	status, body := postOrder(t, app, "buyer")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body.Error == nil || body.Error.Kind != "UNAVAILABLE_ITEMS" || len(body.Error.ProductIDs) != 1 || body.Error.ProductIDs[0] != "p2" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
}

func TestCreateOrder_Errors(t *testing.T) {
	app := makeAppWithCheckoutHandler(newFixture())

	if status, _ := postOrder(t, app, ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without a user, got %d", status)
	}
	if status, _ := postOrder(t, app, "no-cart"); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 without a cart, got %d", status)
	}
}
