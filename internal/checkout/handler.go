package checkout

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/transaction"
	"github.com/wichananm65/storefront/internal/user"
)

// EventSource confirms webhook events with the provider that sent them.
type EventSource interface {
	RetrieveEvent(ctx context.Context, eventID string) (payment.Event, error)
}

type Handler struct {
	service *Service
	events  EventSource
	log     *zap.Logger
}

// NewHandler wires checkout. A nil events source disables the webhook.
func NewHandler(s *Service, events EventSource, log *zap.Logger) *Handler {
	return &Handler{service: s, events: events, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/omise/webhook", h.omiseWebhook)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	req := new(Request)
	if err := c.BodyParser(req); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(req); errs != nil {
		return httpx.Invalid(c, errs)
	}

	res, err := h.service.Checkout(c.UserContext(), userID, *req)
	if err != nil {
		var perr *PaymentError
		switch {
		case errors.As(err, &perr):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"failure": "Payment failed",
				"code":    perr.Code,
				"message": perr.Message,
			})
		case errors.Is(err, ErrProductNotFound):
			return httpx.Fail(c, fiber.StatusNotFound, "Product not found")
		case errors.Is(err, payment.ErrMissingSource):
			return httpx.Fail(c, fiber.StatusBadRequest, "Card token or source is required")
		case errors.Is(err, payment.ErrUnknownProvider):
			return httpx.Fail(c, fiber.StatusBadRequest, "Payment provider is not available")
		default:
			return httpx.Internal(c, h.log, err)
		}
	}
	return httpx.OK(c, fiber.Map{
		"order":        res.Order,
		"transaction":  res.Transaction,
		"authorizeUri": res.AuthorizeURI,
	})
}

type webhookEvent struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// omiseWebhook trusts only the event id from the body and re-fetches the event
// from Omise before settling anything.
func (h *Handler) omiseWebhook(c *fiber.Ctx) error {
	if h.events == nil {
		return httpx.Fail(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}
	in := new(webhookEvent)
	if err := c.BodyParser(in); err != nil || in.ID == "" {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid event")
	}

	ev, err := h.events.RetrieveEvent(c.UserContext(), in.ID)
	if err != nil {
		h.log.Warn("webhook retrieve event", zap.String("event_id", in.ID), zap.Error(err))
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unknown event")
	}
	if ev.Key != payment.EventChargeComplete || ev.Charge == nil {
		h.log.Debug("webhook ignored", zap.String("key", ev.Key))
		return httpx.OK(c, nil)
	}

	if err := h.service.Settle(c.UserContext(), *ev.Charge); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			h.log.Warn("webhook charge has no transaction", zap.String("charge_id", ev.Charge.ID))
			return httpx.OK(c, nil)
		}
		return httpx.Internal(c, h.log, err)
	}
	return httpx.OK(c, nil)
}
