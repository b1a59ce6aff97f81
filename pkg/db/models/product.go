package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopfront/storefront-backend/pkg/enums"
	"github.com/shopfront/storefront-backend/pkg/types"
)

// Product is a catalog listing. Photos holds the raw photo document, which may still be in
// one of the historic shapes until a write or backfill canonicalizes it.
type Product struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Gender          enums.Gender    `gorm:"column:gender;type:varchar(16);not null;index:idx_products_gender_created_at,priority:1"`
	Category        string          `gorm:"column:category;not null"`
	Subcategory     string          `gorm:"column:subcategory;not null;default:''"`
	ProductName     string          `gorm:"column:product_name;not null"`
	Brand           string          `gorm:"column:brand;not null;default:'Unknown'"`
	PricePLN        decimal.Decimal `gorm:"column:price_pln;type:numeric(12,2);not null"`
	PriceUSD        decimal.Decimal `gorm:"column:price_usd;type:numeric(12,2);not null"`
	Photos          types.RawList   `gorm:"column:photos;not null"`
	Description     string          `gorm:"column:description;not null;default:''"`
	MaintenanceInfo string          `gorm:"column:maintenance_info;not null"`
	IsBestseller    bool            `gorm:"column:is_bestseller;not null;default:false"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	Revision        int64           `gorm:"column:revision;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_products_gender_created_at,priority:2"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
