package transaction

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
	app.Get("/api/v1/dashboard/transactions", h.getTransactions)
	app.Post("/api/v1/dashboard/transactions/:id<int>/cancel", h.cancelOwn)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/transactions", h.adminTransactions)
	r.Post("/transactions/:id<int>/cancel", h.cancelAny)
}

func (h *Handler) getTransactions(c *fiber.Ctx) error {
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

func (h *Handler) adminTransactions(c *fiber.Ctx) error {
	page, err := h.service.AdminList(c.UserContext(), listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *Handler) cancelOwn(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return h.cancel(c, userID)
}

func (h *Handler) cancelAny(c *fiber.Ctx) error {
	return h.cancel(c, 0)
}

func (h *Handler) cancel(c *fiber.Ctx, userID int) error {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid transaction id")
	}
	t, err := h.service.Cancel(c.UserContext(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return httpx.Fail(c, fiber.StatusNotFound, "Transaction not found")
		case errors.Is(err, ErrInvalidState):
			return httpx.Fail(c, fiber.StatusConflict, "Invalid transaction state")
		case errors.Is(err, ErrRefundFailed):
			return httpx.Fail(c, fiber.StatusBadGateway, "Refund failed")
		default:
			return httpx.Internal(c, h.log, err)
		}
	}
	return httpx.OK(c, fiber.Map{"transaction": t})
}
