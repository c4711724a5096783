package category

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.getCategories)
}

type categoryResponse struct {
	Item
	Label string `json:"label"`
}

// getCategories lists the catalogue; ?lang=uz switches the label language.
func (h *Handler) getCategories(c *fiber.Ctx) error {
	lang := c.Query("lang", "en")
	items := List()
	out := make([]categoryResponse, 0, len(items))
	for _, it := range items {
		out = append(out, categoryResponse{Item: it, Label: Translate(it.Name, lang)})
	}
	return c.JSON(out)
}
