package upload

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/httpx"
)

// Uploader is the storage surface the HTTP layer needs.
type Uploader interface {
	SaveMultipart(ctx context.Context, fh *multipart.FileHeader) (File, error)
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	storage *DiskStorage
	log     *zap.Logger
}

func NewHandler(storage *DiskStorage, log *zap.Logger) *Handler {
	return &Handler{storage: storage, log: log}
}

// RegisterPublicRoutes serves stored files.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Static(h.storage.BaseURL(), h.storage.Dir(), fiber.Static{
		Browse: false,
		MaxAge: 3600,
	})
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Post("/uploads", h.upload)
	r.Delete("/uploads/:key", h.remove)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return httpx.Fail(c, fiber.StatusBadRequest, "File is required")
	}
	f, err := h.storage.SaveMultipart(c.UserContext(), fh)
	if err != nil {
		return FailureFor(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": fiber.StatusOK, "url": f.URL, "key": f.Key})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	if err := h.storage.Delete(c.UserContext(), c.Params("key")); err != nil {
		return FailureFor(c, h.log, err)
	}
	return httpx.OK(c, nil)
}

// FailureFor maps storage errors to failure responses.
func FailureFor(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, ErrTooLarge):
		return httpx.Fail(c, fiber.StatusRequestEntityTooLarge, "File is too large")
	case errors.Is(err, ErrNotImage):
		return httpx.Fail(c, fiber.StatusUnsupportedMediaType, "Only images are allowed")
	case errors.Is(err, ErrInvalidKey):
		return httpx.Fail(c, fiber.StatusBadRequest, "Invalid file key")
	case errors.Is(err, ErrNotFound):
		return httpx.Fail(c, fiber.StatusNotFound, "File not found")
	}
	return httpx.Internal(c, log, err)
}
