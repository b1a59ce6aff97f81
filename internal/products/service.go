package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	"github.com/shopfront/storefront-backend/pkg/db/models"
	"github.com/shopfront/storefront-backend/pkg/enums"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/pagination"
	"github.com/shopfront/storefront-backend/pkg/types"
)

const (
	// MaxCreatePhotos caps the photos accepted when a product is created.
	MaxCreatePhotos = 3
	// MaxUpdatePhotos caps the photos accepted by a single update.
	MaxUpdatePhotos = 5
	// MaxPhotoBytes is the per-file upload limit.
	MaxPhotoBytes = 15 << 20

	DefaultBrand           = "Unknown"
	DefaultMaintenanceInfo = "Brak informacji o pielęgnacji"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id int64) (*ProductDTO, error)
	AdminList(ctx context.Context) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateInput, uploads []photos.Upload) (*MutationResult, error)
	Update(ctx context.Context, id int64, input UpdateInput, uploads []photos.Upload) (*MutationResult, error)
	Delete(ctx context.Context, id int64) ([]photos.DeleteReport, error)
	DeletePhoto(ctx context.Context, id int64, index int) (*MutationResult, error)
}

// ListInput holds catalog filters and page-number pagination.
type ListInput struct {
	Filter ListFilter
	Page   pagination.Params
}

// CreateInput holds the validated fields of a new product.
type CreateInput struct {
	ProductName     string
	Price           decimal.Decimal
	Category        string
	Subcategory     string
	Gender          enums.Gender
	Description     string
	Brand           string
	MaintenanceInfo string
	IsBestseller    bool
	Stock           int
}

// UpdateInput carries optional field changes. RemovedPhotos is the raw JSON array of
// resolved URLs sent by the admin console.
type UpdateInput struct {
	ProductName     *string
	Price           *decimal.Decimal
	Category        *string
	Subcategory     *string
	Gender          *enums.Gender
	Description     *string
	Brand           *string
	MaintenanceInfo *string
	IsBestseller    *bool
	Stock           *int
	RemovedPhotos   *string
}

type photoReconciler interface {
	Reconcile(ctx context.Context, existing []photos.Record, removedURLs []string, files []photos.Upload, startOrdinal int) photos.Result
	DeleteRemoved(ctx context.Context, res photos.Result) []photos.DeleteReport
	DeleteURLs(ctx context.Context, urls []string) []photos.DeleteReport
	Resolver() photos.Resolver
}

type service struct {
	repo       *Repository
	reconciler photoReconciler
	normalizer photos.Normalizer
	pricing    Pricing
	logg       *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, reconciler photoReconciler, normalizer photos.Normalizer, pricing Pricing, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("photo reconciler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		reconciler: reconciler,
		normalizer: normalizer,
		pricing:    pricing,
		logg:       logg,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page := input.Page.Normalize()
	rows, total, err := s.repo.List(ctx, input.Filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &ListResult{
		Items: NewProductDTOs(rows, s.normalizer),
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product, s.normalizer), nil
}

func (s *service) AdminList(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return NewProductDTOs(rows, s.normalizer), nil
}

// Create uploads the photos, then inserts the product with canonical photo records.
func (s *service) Create(ctx context.Context, input CreateInput, uploads []photos.Upload) (*MutationResult, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if len(uploads) > MaxCreatePhotos {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d photos are allowed", MaxCreatePhotos))
	}

	res := s.reconciler.Reconcile(ctx, nil, nil, uploads, 0)
	doc, err := photos.Encode(res.Records)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode photos")
	}

	product := &models.Product{
		Gender:          input.Gender,
		Category:        strings.TrimSpace(input.Category),
		Subcategory:     strings.TrimSpace(input.Subcategory),
		ProductName:     strings.TrimSpace(input.ProductName),
		Brand:           defaultString(input.Brand, DefaultBrand),
		PricePLN:        input.Price.Round(2),
		PriceUSD:        s.pricing.USD(input.Price),
		Photos:          doc,
		Description:     input.Description,
		MaintenanceInfo: defaultString(input.MaintenanceInfo, DefaultMaintenanceInfo),
		IsBestseller:    input.IsBestseller,
		Stock:           input.Stock,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		s.cleanupUploads(ctx, res.Records, 0)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}

	ctx = s.logg.WithProductID(ctx, created.ID)
	s.logDegraded(ctx, res)
	s.logg.Info(s.logg.WithField(ctx, "photos", len(res.Records)), "product created")

	return &MutationResult{
		Product:        NewProductDTO(created, s.normalizer),
		DegradedPhotos: res.Degraded,
	}, nil
}

// Update applies partial field changes, photo removals and new uploads under an optimistic
// revision check.
func (s *service) Update(ctx context.Context, id int64, input UpdateInput, uploads []photos.Upload) (*MutationResult, error) {
	if len(uploads) > MaxUpdatePhotos {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d photos are allowed", MaxUpdatePhotos))
	}
	if input.Gender != nil && !input.Gender.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithProductID(ctx, id)

	var removed []string
	if input.RemovedPhotos != nil {
		parsed, perr := parseRemovedPhotos(*input.RemovedPhotos)
		if perr != nil {
			s.logg.WarnErr(ctx, "ignoring malformed removedPhotos", perr)
		} else {
			removed = parsed
		}
	}

	collection := photos.Classify(product.Photos)
	existing, recognised := photos.Adopt(collection, s.reconciler.Resolver())
	start := photos.NextOrdinal(existing)
	if !recognised {
		s.logg.Warn(s.logg.WithField(ctx, "shape", collection.Shape), "photo document not recognised; appending without removals")
		start = len(collection.Raw)
		removed = nil
	}

	res := s.reconciler.Reconcile(ctx, existing, removed, uploads, start)
	doc, err := photos.Encode(res.Records)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode photos")
	}
	if !recognised {
		doc = append(append(types.RawList{}, collection.Raw...), doc...)
	}

	changes := changesFrom(product)
	applyUpdate(&changes, input, s.pricing)
	changes.Photos = doc

	if err := s.repo.UpdateIfRevision(ctx, id, product.Revision, changes); err != nil {
		s.cleanupUploads(ctx, res.Records, start)
		if errors.Is(err, ErrRevisionConflict) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product was modified concurrently; reload and retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.logDegraded(ctx, res)
	deletes := s.reconciler.DeleteRemoved(ctx, res)

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MutationResult{
		Product:        NewProductDTO(updated, s.normalizer),
		PhotoDeletes:   deletes,
		DegradedPhotos: res.Degraded,
	}, nil
}

// Delete removes every photo blob best-effort, then the product row.
func (s *service) Delete(ctx context.Context, id int64) ([]photos.DeleteReport, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithProductID(ctx, id)

	reports := s.reconciler.DeleteURLs(ctx, s.normalizer.Normalize(product.Photos).URLs)
	if ferr := photos.FailedDeletes(reports); ferr != nil {
		s.logg.WarnErr(ctx, "some product photos could not be deleted from storage", ferr)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.logg.Info(ctx, "product deleted")
	return reports, nil
}

// DeletePhoto removes the photo at index (as shown in the product's photos list). The blob
// is deleted once the shortened collection is saved.
func (s *service) DeletePhoto(ctx context.Context, id int64, index int) (*MutationResult, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithProductID(ctx, id)

	collection := photos.Classify(product.Photos)
	if collection.Shape == photos.ShapeUnrecognized {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo collection cannot be edited")
	}
	remaining, url, ok := photos.RemoveDisplayed(collection, s.reconciler.Resolver(), index)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo index").
			WithDetails(map[string]any{"index": index, "count": s.normalizer.Normalize(product.Photos).Len()})
	}
	doc, err := photos.Encode(remaining)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode photos")
	}

	if err := s.repo.UpdatePhotosIfRevision(ctx, id, product.Revision, doc); err != nil {
		if errors.Is(err, ErrRevisionConflict) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product was modified concurrently; reload and retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product photos")
	}

	var reports []photos.DeleteReport
	if url != "" {
		reports = s.reconciler.DeleteRemoved(ctx, photos.Result{Removed: []string{url}})
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MutationResult{
		Product:      NewProductDTO(updated, s.normalizer),
		PhotoDeletes: reports,
	}, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// cleanupUploads deletes blobs written for records with ordinal >= from when the write
// that would have referenced them failed.
func (s *service) cleanupUploads(ctx context.Context, records []photos.Record, from int) {
	resolver := s.reconciler.Resolver()
	var urls []string
	for _, rec := range records {
		if rec.Ordinal < from || photos.IsPlaceholder(rec.StorageKey) {
			continue
		}
		urls = append(urls, resolver.Resolve(rec.StorageKey))
	}
	if len(urls) == 0 {
		return
	}
	reports := s.reconciler.DeleteURLs(ctx, urls)
	if err := photos.FailedDeletes(reports); err != nil {
		s.logg.WarnErr(ctx, "orphaned photo uploads could not be cleaned up", err)
	}
}

func (s *service) logDegraded(ctx context.Context, res photos.Result) {
	if res.Degraded == 0 {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "degraded_photos", res.Degraded), "some photos were stored as placeholders")
}

func validateCreate(input CreateInput) error {
	var missing []string
	if strings.TrimSpace(input.ProductName) == "" {
		missing = append(missing, "productName")
	}
	if strings.TrimSpace(input.Category) == "" {
		missing = append(missing, "category")
	}
	if input.Gender == "" {
		missing = append(missing, "gender")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"fields": missing})
	}
	if !input.Gender.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return nil
}

func changesFrom(p *models.Product) Changes {
	return Changes{
		Gender:          p.Gender,
		Category:        p.Category,
		Subcategory:     p.Subcategory,
		ProductName:     p.ProductName,
		Brand:           p.Brand,
		PricePLN:        p.PricePLN,
		PriceUSD:        p.PriceUSD,
		Photos:          p.Photos,
		Description:     p.Description,
		MaintenanceInfo: p.MaintenanceInfo,
		IsBestseller:    p.IsBestseller,
		Stock:           p.Stock,
	}
}

// applyUpdate copies set fields. Name, price, category and gender ignore empty values; the
// free-text fields accept them.
func applyUpdate(c *Changes, input UpdateInput, pricing Pricing) {
	if input.ProductName != nil && strings.TrimSpace(*input.ProductName) != "" {
		c.ProductName = strings.TrimSpace(*input.ProductName)
	}
	if input.Price != nil {
		c.PricePLN = input.Price.Round(2)
		c.PriceUSD = pricing.USD(*input.Price)
	}
	if input.Category != nil && strings.TrimSpace(*input.Category) != "" {
		c.Category = strings.TrimSpace(*input.Category)
	}
	if input.Subcategory != nil {
		c.Subcategory = strings.TrimSpace(*input.Subcategory)
	}
	if input.Gender != nil && *input.Gender != "" {
		c.Gender = *input.Gender
	}
	if input.Description != nil {
		c.Description = *input.Description
	}
	if input.Brand != nil {
		c.Brand = *input.Brand
	}
	if input.MaintenanceInfo != nil {
		c.MaintenanceInfo = *input.MaintenanceInfo
	}
	if input.IsBestseller != nil {
		c.IsBestseller = *input.IsBestseller
	}
	if input.Stock != nil {
		c.Stock = *input.Stock
	}
}

func parseRemovedPhotos(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, fmt.Errorf("parse removedPhotos: %w", err)
	}
	return urls, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
