package product

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/listing"
)

const maxBatchIDs = 50

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/batch", h.getBatch)
	app.Get("/api/v1/products/:id<int>", h.getProduct)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/products", h.adminProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/:id<int>", h.updateProduct)
	r.Delete("/products/:id<int>", h.deleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *Handler) adminProducts(c *fiber.Ctx) error {
	page, err := h.service.AdminList(c.UserContext(), listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p)
}

// getBatch resolves ?ids=1,2,3 for clients hydrating stored product lists.
func (h *Handler) getBatch(c *fiber.Ctx) error {
	var ids []int
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
		}
		ids = append(ids, id)
	}
	if len(ids) > maxBatchIDs {
		return httpx.Fail(c, fiber.StatusBadRequest, "Too many ids")
	}
	items, err := h.service.GetMany(c.UserContext(), ids)
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	in := new(Input)
	if err := c.BodyParser(in); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	created, err := h.service.Create(c.UserContext(), *in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": fiber.StatusOK, "product": created})
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
	}
	in := new(Input)
	if err := c.BodyParser(in); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	updated, err := h.service.Update(c.UserContext(), id, *in)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"product": updated})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, nil)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return httpx.Invalid(c, ve.Fields)
	case errors.Is(err, ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
	}
	return httpx.Internal(c, h.log, err)
}
