package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/otp"
	"github.com/wichananm65/storefront/internal/upload"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required,min=3"`
}

// profileUpdateRequest accepts partial payloads so PATCH semantics hold.
type profileUpdateRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=3"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

type passwordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/auth/sign-in", h.login)
	app.Post("/api/v1/auth/sign-up", h.register)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
	app.Delete("/api/v1/profile", h.deleteAccount)
	app.Post("/api/v1/profile/avatar", h.uploadAvatar)
	app.Put("/api/v1/profile/password", h.updatePassword)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/customers", h.listCustomers)
}

// RequireActive rejects tokens whose account was deleted after the token was issued.
func (h *Handler) RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserIDFromCtx(c)
		if err != nil {
			return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if _, err := h.service.Profile(c.UserContext(), userID); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
			}
			return httpx.Internal(c, h.log, err)
		}
		return c.Next()
	}
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	session, err := h.service.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"user": session.User, "token": session.Token})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	session, err := h.service.Register(c.UserContext(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": fiber.StatusOK,
		"user":   session.User,
		"token":  session.Token,
	})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	u, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	payload := new(profileUpdateRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	u, err := h.service.UpdateProfile(c.UserContext(), userID, ProfileUpdate{
		FullName: payload.FullName,
		Email:    payload.Email,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"user": u})
}

func (h *Handler) uploadAvatar(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "File is required")
	}

	u, err := h.service.UploadAvatar(c.UserContext(), userID, fh)
	if err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, fiber.Map{"user": u})
}

func (h *Handler) updatePassword(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	payload := new(passwordRequest)
	if err := c.BodyParser(payload); err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := httpx.Validate(payload); errs != nil {
		return httpx.Invalid(c, errs)
	}

	if err := h.service.UpdatePassword(c.UserContext(), userID, payload.OldPassword, payload.NewPassword, payload.ConfirmPassword); err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, nil)
}

func (h *Handler) deleteAccount(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return httpx.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err := h.service.DeleteAccount(c.UserContext(), userID); err != nil {
		return h.fail(c, err)
	}
	return httpx.OK(c, nil)
}

func (h *Handler) listCustomers(c *fiber.Ctx) error {
	page, err := h.service.ListCustomers(c.UserContext(), listing.FromCtx(c))
	if err != nil {
		return httpx.Internal(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUserExists):
		return httpx.Fail(c, fiber.StatusConflict, "User already exists")
	case errors.Is(err, ErrUserNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, ErrIncorrectPassword):
		return httpx.Fail(c, fiber.StatusBadRequest, "Incorrect password")
	case errors.Is(err, ErrPasswordMismatch):
		return httpx.Fail(c, fiber.StatusBadRequest, "Passwords do not match")
	case errors.Is(err, ErrWeakPassword):
		return httpx.Fail(c, fiber.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, otp.ErrNotVerified):
		return httpx.Fail(c, fiber.StatusBadRequest, "Email is not verified")
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, upload.ErrNotImage):
		return upload.FailureFor(c, h.log, err)
	}
	return httpx.Internal(c, h.log, err)
}
