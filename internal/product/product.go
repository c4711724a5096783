package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/wichananm65/storefront/internal/category"
	"github.com/wichananm65/storefront/internal/httpx"
)

// Product maps to the `products` table. Price is in the smallest currency unit.
type Product struct {
	ID          int       `json:"productId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	ImageKey    string    `json:"imageKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the admin product form.
type Input struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description" validate:"required,min=10"`
	Category    string `json:"category" validate:"required"`
	Price       int64  `json:"price" validate:"gt=0"`
	Image       string `json:"image" validate:"required"`
	ImageKey    string `json:"imageKey"`
}

// ValidationError carries per-field messages for a rejected Input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product: %d field(s)", len(e.Fields))
}

// validate normalizes the category and checks every field, returning all
// problems together.
func (in *Input) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = category.Normalize(in.Category)

	errs := httpx.Validate(in)
	if in.Category != "" && !category.Valid(in.Category) {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["category"] = "category is not in the catalogue"
	}
	if errs != nil {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (in Input) apply(p Product) Product {
	p.Title = in.Title
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Image = in.Image
	p.ImageKey = in.ImageKey
	return p
}
