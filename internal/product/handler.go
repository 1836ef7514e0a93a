package product

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/thrift-market/internal/apperr"
	"github.com/wichananm65/thrift-market/internal/auth"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/logger"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: logger.OrNop(log)}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/:id", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products", h.createProduct)
	app.Put("/api/v1/products/:id", h.updateProduct)
	app.Delete("/api/v1/products/:id", h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	// ?all=true includes sold listings, ?category=<id> narrows to one category
	products, err := h.service.List(c.UserContext(), Filter{
		AvailableOnly: !c.QueryBool("all", false),
		CategoryID:    c.QueryInt("category", 0),
	})
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "", fiber.Map{"products": products})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "", fiber.Map{"product": p})
}

type createRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Condition   string          `json:"condition"`
	ImageURL    string          `json:"imageUrl"`
	CategoryID  int             `json:"categoryId"`
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	payload := new(createRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.BadRequest(c, err.Error())
	}

	p, err := h.service.Create(c.UserContext(), userID, Product{
		Title:       payload.Title,
		Description: payload.Description,
		Price:       payload.Price,
		IsAvailable: true,
		Condition:   payload.Condition,
		ImageURL:    payload.ImageURL,
		CategoryID:  payload.CategoryID,
	})
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusCreated, "Product created successfully.", fiber.Map{"product": p})
}

type updateRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"isAvailable"`
	Condition   *string          `json:"condition"`
	ImageURL    *string          `json:"imageUrl"`
	CategoryID  *int             `json:"categoryId"`
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}

	payload := new(updateRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.BadRequest(c, err.Error())
	}
	patch := Patch{
		Title:       payload.Title,
		Description: payload.Description,
		IsAvailable: payload.IsAvailable,
		Condition:   payload.Condition,
		ImageURL:    payload.ImageURL,
		Price:       payload.Price,
		CategoryID:  payload.CategoryID,
	}

	p, err := h.service.Update(c.UserContext(), userID, c.Params("id"), patch)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Product updated successfully.", fiber.Map{"product": p})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, h.log, err)
	}
	if err := h.service.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			h.log.Debug("delete of unknown or foreign product", zap.String("product_id", c.Params("id")), zap.String("user_id", userID))
		}
		return httpx.Fail(c, h.log, err)
	}
	return httpx.OK(c, fiber.StatusOK, "Product deleted successfully.", nil)
}
