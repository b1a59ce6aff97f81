package product

import (
	"time"

	"github.com/shopfront/storefront-backend/internal/photos"
	"github.com/shopfront/storefront-backend/pkg/db/models"
)

// ProductDTO is the product payload returned to the storefront and admin console.
// Photos is always rendered through the normalizer.
type ProductDTO struct {
	ID              int64       `json:"id"`
	Gender          string      `json:"gender"`
	Category        string      `json:"category"`
	Subcategory     string      `json:"subcategory"`
	ProductName     string      `json:"productName"`
	Brand           string      `json:"brand"`
	PricePLN        float64     `json:"pricePLN"`
	PriceUSD        float64     `json:"priceUSD"`
	Photos          photos.List `json:"photos"`
	Description     string      `json:"description"`
	MaintenanceInfo string      `json:"maintenanceInfo"`
	IsBestseller    bool        `json:"isBestseller"`
	Stock           int         `json:"stock"`
	Revision        int64       `json:"revision"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ListResult is one page of the catalog.
type ListResult struct {
	Items []ProductDTO `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// MutationResult wraps a written product with the photo side effects of the request.
type MutationResult struct {
	Product        *ProductDTO           `json:"product"`
	PhotoDeletes   []photos.DeleteReport `json:"photoDeletes,omitempty"`
	DegradedPhotos int                   `json:"degradedPhotos,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product, normalizer photos.Normalizer) *ProductDTO {
	return &ProductDTO{
		ID:              product.ID,
		Gender:          product.Gender.String(),
		Category:        product.Category,
		Subcategory:     product.Subcategory,
		ProductName:     product.ProductName,
		Brand:           product.Brand,
		PricePLN:        product.PricePLN.InexactFloat64(),
		PriceUSD:        product.PriceUSD.InexactFloat64(),
		Photos:          normalizer.Normalize(product.Photos),
		Description:     product.Description,
		MaintenanceInfo: product.MaintenanceInfo,
		IsBestseller:    product.IsBestseller,
		Stock:           product.Stock,
		Revision:        product.Revision,
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
}

// NewProductDTOs maps a slice of models, keeping order.
func NewProductDTOs(products []models.Product, normalizer photos.Normalizer) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i], normalizer))
	}
	return out
}
