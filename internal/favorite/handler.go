package favorite

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/user"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(s *Service, log *zap.Logger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/favorites", h.getFavorites)
	app.Post("/api/v1/favorites", h.addFavorite)
	app.Delete("/api/v1/favorites", h.removeFavorite)
}

type favoriteRequest struct {
	ProductID int `json:"productId"`
}

func readProductID(c *fiber.Ctx) (int, bool) {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil || payload.ProductID <= 0 {
		return 0, false
	}
	return payload.ProductID, true
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	productID, ok := readProductID(c)
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
	}
	if err := h.service.Add(c.UserContext(), userID, productID); err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"productId": productID})
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	productID, ok := readProductID(c)
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid product id")
	}
	if err := h.service.Remove(c.UserContext(), userID, productID); err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"productId": productID})
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	page, err := h.service.List(c.UserContext(), userID, listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
	case errors.Is(err, ErrAlreadyFavorite):
		return httpx.Fail(c, fiber.StatusConflict, "Product already in favorites")
	case errors.Is(err, ErrNotFavorite):
		return httpx.Fail(c, fiber.StatusBadRequest, "Product not in favorites")
	default:
		return httpx.Internal(c, h.log, err)
	}
}
