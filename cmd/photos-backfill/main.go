package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/config"
	"github.com/shopfront/storefront-backend/pkg/db"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "photos-backfill"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	batchSize := flag.Int("batch-size", defaultBatchSize, "products loaded per batch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "photos-backfill",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	service, err := NewService(ServiceParams{
		Repo:      product.NewRepository(dbClient.DB()),
		Resolver:  photos.NewResolver(cfg.Storage.BaseURL),
		Logger:    logg,
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create backfill service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"dry_run": *dryRun,
	})
	logg.Info(ctx, "starting photo backfill")

	report, err := service.Run(ctx)
	ctx = logg.WithFields(ctx, map[string]any{
		"scanned":      report.Scanned,
		"canonical":    report.Canonical,
		"rewritten":    report.Rewritten,
		"unrecognized": report.Unrecognized,
		"conflicts":    report.Conflicts,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "photo backfill failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "photo backfill finished")
}
