package checkout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/auth"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/logger"
	"go.uber.org/zap"
)

type Handler struct {
	engine *Engine
	log    *zap.Logger
}

func NewHandler(e *Engine, log *zap.Logger) *Handler {
	return &Handler{engine: e, log: logger.OrNop(log)}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders", h.createOrder)
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	o, err := h.engine.Checkout(c.UserContext(), userID)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusCreated, "Order created successfully.", fiber.Map{"order": o})
}
