package favourites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/pkg/db/models"
)

// Repository encapsulates favourites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favourites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every favourite, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Favourite, error) {
	var rows []models.Favourite
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a favourite. The unique index on product_id rejects duplicates.
func (r *Repository) Create(ctx context.Context, productID int64) (*models.Favourite, error) {
	fav := &models.Favourite{
		ID:        uuid.New(),
		ProductID: productID,
	}
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		return nil, err
	}
	return fav, nil
}

// Delete removes the favourite by id and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Favourite{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
