package otp

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

type sendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/auth/otp/send", h.send)
	app.Post("/api/v1/auth/otp/verify", h.verify)
}

func (h *Handler) send(c *fiber.Ctx) error {
	payload := new(sendRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	if err := h.service.Send(c.UserContext(), payload.Email); err != nil {
		if errors.Is(err, ErrUserExists) {
			return httpx.Fail(c, fiber.StatusConflict, "User already exists")
		}
		return httpx.Internal(c, h.log, err)
	}
	return httpx.OK(c, nil)
}

func (h *Handler) verify(c *fiber.Ctx) error {
	payload := new(verifyRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	status, err := h.service.Verify(c.UserContext(), payload.Email, payload.Code)
	switch {
	case errors.Is(err, ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "OTP not found")
	case errors.Is(err, ErrTooManyAttempts):
		return httpx.Fail(c, fiber.StatusTooManyRequests, "Too many attempts")
	case errors.Is(err, ErrInvalidCode):
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid OTP")
	case err != nil:
		return httpx.Internal(c, h.log, err)
	}
	// the outcome travels in the body; an expired code is not an HTTP error
	return c.JSON(fiber.Map{"status": status})
}
