package backend

import (
	"context"
	"fmt"

	"github.com/shopfront/storefront-backend/pkg/config"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/storage"
	"github.com/shopfront/storefront-backend/pkg/storage/gcs"
	"github.com/shopfront/storefront-backend/pkg/storage/s3"
)

// Open returns the configured blob backend. The "none" backend yields a nil Blob and no
// error: uploads then degrade to placeholders and deletes are skipped.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Blob, error) {
	switch cfg.Storage.Backend {
	case "", config.StorageBackendNone:
		if logg != nil {
			logg.Warn(ctx, "blob storage not configured; product photos will use placeholders")
		}
		return nil, nil
	case config.StorageBackendGCS:
		client, err := gcs.NewClient(ctx, cfg.GCS, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageBackendS3:
		client, err := s3.NewClient(ctx, cfg.S3, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
