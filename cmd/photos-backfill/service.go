package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/db/models"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/metrics"
	"github.com/shopfront/storefront-backend/pkg/types"
)

const defaultBatchSize = 100

type productRepository interface {
	InBatches(ctx context.Context, batchSize int, fn func(batch []models.Product) error) error
	UpdatePhotosIfRevision(ctx context.Context, id, revision int64, photos types.RawList) error
}

type ServiceParams struct {
	Repo      productRepository
	Resolver  photos.Resolver
	Logger    *logger.Logger
	Metrics   *metrics.PhotoMetrics
	BatchSize int
	DryRun    bool
}

// Report summarises one backfill run.
type Report struct {
	Scanned      int `json:"scanned"`
	Canonical    int `json:"canonical"`
	Rewritten    int `json:"rewritten"`
	Unrecognized int `json:"unrecognized"`
	Conflicts    int `json:"conflicts"`
}

// Service rewrites every non-canonical photo document into canonical records.
type Service struct {
	repo      productRepository
	resolver  photos.Resolver
	logg      *logger.Logger
	metrics   *metrics.PhotoMetrics
	batchSize int
	dryRun    bool
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("product repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if !params.Resolver.Configured() {
		return nil, errors.New("storage base url is required to adopt legacy urls")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Service{
		repo:      params.Repo,
		resolver:  params.Resolver,
		logg:      params.Logger,
		metrics:   params.Metrics,
		batchSize: batch,
		dryRun:    params.DryRun,
	}, nil
}

// Run walks the catalog once. A product edited concurrently is counted as a conflict and
// left for the next run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	var report Report
	err := s.repo.InBatches(ctx, s.batchSize, func(batch []models.Product) error {
		for i := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.process(ctx, &batch[i], &report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("backfill photos: %w", err)
	}
	return report, nil
}

func (s *Service) process(ctx context.Context, p *models.Product, report *Report) error {
	report.Scanned++

	collection := photos.Classify(p.Photos)
	s.metrics.IncShape(collection.Shape.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": p.ID,
		"shape":      collection.Shape.String(),
	})

	if photos.IsCanonical(collection, s.resolver) {
		report.Canonical++
		return nil
	}

	records, ok := photos.Adopt(collection, s.resolver)
	if !ok {
		report.Unrecognized++
		s.logg.Warn(logCtx, "photo document left untouched: unrecognized shape")
		return nil
	}
	encoded, err := photos.Encode(records)
	if err != nil {
		return fmt.Errorf("encode photos for product %d: %w", p.ID, err)
	}

	if s.dryRun {
		report.Rewritten++
		s.logg.Info(s.logg.WithField(logCtx, "records", len(records)), "photo document would be rewritten")
		return nil
	}

	if err := s.repo.UpdatePhotosIfRevision(ctx, p.ID, p.Revision, encoded); err != nil {
		if errors.Is(err, product.ErrRevisionConflict) {
			report.Conflicts++
			s.logg.Warn(logCtx, "photo document changed during backfill; skipped")
			return nil
		}
		return fmt.Errorf("rewrite photos for product %d: %w", p.ID, err)
	}
	report.Rewritten++
	s.logg.Info(s.logg.WithField(logCtx, "records", len(records)), "photo document rewritten")
	return nil
}
