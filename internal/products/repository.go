package product

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/pkg/db/models"
	"github.com/shopfront/storefront-backend/pkg/enums"
	"github.com/shopfront/storefront-backend/pkg/pagination"
	"github.com/shopfront/storefront-backend/pkg/types"
)

// ErrRevisionConflict is returned when a conditional update loses a race.
var ErrRevisionConflict = errors.New("product revision changed")

// ListFilter narrows catalog listings by exact field matches.
type ListFilter struct {
	Gender      enums.Gender
	Category    string
	Subcategory string
}

// Changes is the set of columns written by a conditional update.
type Changes struct {
	Gender          enums.Gender
	Category        string
	Subcategory     string
	ProductName     string
	Brand           string
	PricePLN        decimal.Decimal
	PriceUSD        decimal.Decimal
	Photos          types.RawList
	Description     string
	MaintenanceInfo string
	IsBestseller    bool
	Stock           int
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products that still exist among ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List returns one page of products newest first together with the unpaginated total.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Product, int64, error) {
	page = page.Normalize()
	query := applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := applyFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll returns every product newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBestsellers returns up to limit bestseller products of a gender, newest first.
func (r *Repository) ListBestsellers(ctx context.Context, gender enums.Gender, limit int) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("gender = ? AND is_bestseller = ?", gender, true).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestByGender returns the newest product of a gender, or nil when there is none.
func (r *Repository) LatestByGender(ctx context.Context, gender enums.Gender) (*models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("gender = ?", gender).
		Order("created_at DESC").Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Create inserts the product and returns it with generated columns populated.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateIfRevision writes changes only when the stored revision still matches and bumps
// it. ErrRevisionConflict is returned when another writer got there first.
func (r *Repository) UpdateIfRevision(ctx context.Context, id, revision int64, changes Changes) error {
	photos := changes.Photos
	if photos == nil {
		photos = types.RawList{}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND revision = ?", id, revision).
		Updates(map[string]any{
			"gender":           changes.Gender,
			"category":         changes.Category,
			"subcategory":      changes.Subcategory,
			"product_name":     changes.ProductName,
			"brand":            changes.Brand,
			"price_pln":        changes.PricePLN,
			"price_usd":        changes.PriceUSD,
			"photos":           photos,
			"description":      changes.Description,
			"maintenance_info": changes.MaintenanceInfo,
			"is_bestseller":    changes.IsBestseller,
			"stock":            changes.Stock,
			"revision":         gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	return nil
}

// UpdatePhotosIfRevision rewrites only the photo document under the revision check.
func (r *Repository) UpdatePhotosIfRevision(ctx context.Context, id, revision int64, photos types.RawList) error {
	if photos == nil {
		photos = types.RawList{}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND revision = ?", id, revision).
		Updates(map[string]any{
			"photos":   photos,
			"revision": gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	return nil
}

// Delete removes the product. It reports false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// InBatches walks every product in id order, batchSize rows at a time.
func (r *Repository) InBatches(ctx context.Context, batchSize int, fn func(batch []models.Product) error) error {
	var rows []models.Product
	res := r.db.WithContext(ctx).FindInBatches(&rows, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(rows)
	})
	return res.Error
}

func applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Gender != "" {
		q = q.Where("gender = ?", filter.Gender)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Subcategory != "" {
		q = q.Where("subcategory = ?", filter.Subcategory)
	}
	return q
}
