package favourites

import (
	"time"

	"github.com/google/uuid"

	product "github.com/shopfront/storefront-backend/internal/products"
)

// FavouriteDTO is one saved product. Product is omitted when the product no longer exists.
type FavouriteDTO struct {
	ID        uuid.UUID           `json:"id"`
	ProductID int64               `json:"productId"`
	CreatedAt time.Time           `json:"createdAt"`
	Product   *product.ProductDTO `json:"product,omitempty"`
}
