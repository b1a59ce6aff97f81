package favourites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/db"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
)

const uniqueProductIndex = "idx_favourites_product_id"

// ServiceParams groups dependencies for the favourites service.
type ServiceParams struct {
	FavouriteRepo *Repository
	ProductRepo   *product.Repository
	Normalizer    photos.Normalizer
}

// Service exposes business rules for favourites.
type Service interface {
	List(ctx context.Context) ([]FavouriteDTO, error)
	Add(ctx context.Context, productID int64) (*FavouriteDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type service struct {
	favouriteRepo *Repository
	productRepo   *product.Repository
	normalizer    photos.Normalizer
}

// NewService builds a favourites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.FavouriteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favourite repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{
		favouriteRepo: params.FavouriteRepo,
		productRepo:   params.ProductRepo,
		normalizer:    params.Normalizer,
	}, nil
}

// List returns favourites newest first, each with the current product when it still exists.
func (s *service) List(ctx context.Context) ([]FavouriteDTO, error) {
	rows, err := s.favouriteRepo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favourites")
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favourite products")
	}

	out := make([]FavouriteDTO, 0, len(rows))
	for _, row := range rows {
		dto := FavouriteDTO{ID: row.ID, ProductID: row.ProductID, CreatedAt: row.CreatedAt}
		if p, ok := found[row.ProductID]; ok {
			dto.Product = product.NewProductDTO(&p, s.normalizer)
		}
		out = append(out, dto)
	}
	return out, nil
}

// Add ensures the product exists and saves it as a favourite.
func (s *service) Add(ctx context.Context, productID int64) (*FavouriteDTO, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	fav, err := s.favouriteRepo.Create(ctx, productID)
	if err != nil {
		if db.IsUniqueViolation(err, uniqueProductIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already in favourites")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert favourite")
	}
	return &FavouriteDTO{
		ID:        fav.ID,
		ProductID: fav.ProductID,
		CreatedAt: fav.CreatedAt,
		Product:   product.NewProductDTO(p, s.normalizer),
	}, nil
}

// Remove deletes a favourite by id.
func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "favourite id is required")
	}
	deleted, err := s.favouriteRepo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete favourite")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favourite not found")
	}
	return nil
}
