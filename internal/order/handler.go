package order

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
	app.Get("/api/v1/dashboard/orders", h.getOrders)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/orders", h.adminOrders)
	r.Patch("/orders/:id<int>", h.updateStatus)
}

// getOrders returns the orders of the currently authenticated user.
func (h *Handler) getOrders(c *fiber.Ctx) error {
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

func (h *Handler) adminOrders(c *fiber.Ctx) error {
	page, err := h.service.AdminList(c.UserContext(), listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid order id")
	}
	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	updated, err := h.service.AdminUpdateStatus(c.UserContext(), id, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return httpx.Fail(c, fiber.StatusNotFound, "Order not found")
		case errors.Is(err, ErrInvalidStatus):
			return httpx.Fail(c, fiber.StatusBadRequest, "Invalid order status")
		case errors.Is(err, ErrStatusTransition):
			return httpx.Fail(c, fiber.StatusConflict, "Order cannot move from its current status")
		case errors.Is(err, ErrRefundFailed):
			return httpx.Fail(c, fiber.StatusBadGateway, "Refund failed")
		default:
			return httpx.Internal(c, h.log, err)
		}
	}
	return httpx.OK(c, fiber.Map{"order": updated})
}
