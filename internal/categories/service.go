package categories

import (
	"context"

	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
)

// BestsellerLimit caps the bestsellers shown on a landing page.
const BestsellerLimit = 6

// LandingDTO is the payload of a gender landing page.
type LandingDTO struct {
	Bestsellers  []product.ProductDTO `json:"bestsellers"`
	HeroImageURL *string              `json:"heroImageUrl"`
}

// Service builds gender landing pages.
type Service interface {
	Landing(ctx context.Context, gender string) (*LandingDTO, error)
}

type service struct {
	repo       *product.Repository
	normalizer photos.Normalizer
}

// NewService builds a categories service.
func NewService(repo *product.Repository, normalizer photos.Normalizer) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{repo: repo, normalizer: normalizer}, nil
}

// Landing returns up to six bestsellers and the first photo of the newest product.
func (s *service) Landing(ctx context.Context, gender string) (*LandingDTO, error) {
	g, err := enums.ParseGender(gender)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown gender").
			WithDetails(map[string]any{"gender": gender, "allowed": enums.Genders()})
	}

	rows, err := s.repo.ListBestsellers(ctx, g, BestsellerLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bestsellers")
	}
	latest, err := s.repo.LatestByGender(ctx, g)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hero product")
	}

	out := &LandingDTO{Bestsellers: product.NewProductDTOs(rows, s.normalizer)}
	if latest != nil {
		if first := s.normalizer.Normalize(latest.Photos).First(); first != "" {
			out.HeroImageURL = &first
		}
	}
	return out, nil
}
