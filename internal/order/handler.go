package order

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/auth"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/logger"
	"go.uber.org/zap"
)

// Handler serves the read side of the order ledger and status updates.
// Order creation lives with checkout.
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: logger.OrNop(log)}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id", h.getOrder)
	app.Put("/api/v1/orders/:id/status", h.updateOrderStatus)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	listing, err := h.service.List(c.UserContext(), userID, c.QueryInt("page", 1), c.QueryInt("limit", DefaultPageSize))
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "", listing)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	detail, err := h.service.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "", fiber.Map{"order": detail})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.BadRequest(c, err.Error())
	}

	o, err := h.service.UpdateStatus(c.UserContext(), userID, c.Params("id"), payload.Status)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Order updated successfully.", fiber.Map{"order": o})
}
