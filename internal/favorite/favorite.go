package favorite

import (
	"time"

	"github.com/wichananm65/storefront/internal/product"
)

// Item is a favorited product together with the time it was added.
type Item struct {
	product.Product
	FavoritedAt time.Time `json:"favoritedAt"`
}
