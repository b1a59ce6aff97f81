package models

import (
	"time"

	"github.com/google/uuid"
)

// Favourite marks a product as saved by the storefront visitor.
type Favourite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_favourites_product_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Favourite) TableName() string {
	return "favourites"
}
