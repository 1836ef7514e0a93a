package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/auth"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/logger"
	"go.uber.org/zap"
)

// Handler delegates cart operations to the cart service.
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: logger.OrNop(log)}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Post("/api/v1/cart/items", h.addToCart)
	app.Put("/api/v1/cart/items/:id", h.updateCartItem)
	app.Delete("/api/v1/cart/items/:id", h.removeFromCart)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	view, err := h.service.GetCart(c.UserContext(), userID)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.respond(c, "", view)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.BadRequest(c, err.Error())
	}

	cart, err := h.service.AddItem(c.UserContext(), userID, payload.ProductID, payload.Quantity)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.render(c, "Item added to cart successfully.", cart)
}

func (h *Handler) updateCartItem(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	payload := new(updateItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.BadRequest(c, err.Error())
	}

	cart, err := h.service.UpdateItemQuantity(c.UserContext(), userID, c.Params("id"), payload.Quantity)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.render(c, "Cart item updated successfully.", cart)
}

func (h *Handler) removeFromCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	cart, err := h.service.RemoveItem(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.render(c, "Item removed from cart successfully.", cart)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	cart, err := h.service.Clear(c.UserContext(), userID)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.render(c, "Cart cleared successfully.", cart)
}

func (h *Handler) render(c *fiber.Ctx, message string, cart Cart) error {
	view, err := h.service.View(c.UserContext(), cart)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return h.respond(c, message, view)
}

func (h *Handler) respond(c *fiber.Ctx, message string, view View) error {
	return httpx.OK(c, fiber.StatusOK, message, fiber.Map{
		"cart":  view,
		"total": view.Total.StringFixed(2),
	})
}
