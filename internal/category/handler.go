package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/logger"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: logger.OrNop(log)}
}

// RegisterPublicRoutes must run before the product routes so that
// /api/v1/products/:id does not capture the path.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products/categories", h.getCategories)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.QueryInt("limit", DefaultLimit))
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "", fiber.Map{"categories": items})
}
