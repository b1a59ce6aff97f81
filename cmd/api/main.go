package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shopfront/storefront-backend/api/controllers"
	"github.com/shopfront/storefront-backend/api/routes"
	"github.com/shopfront/storefront-backend/internal/cart"
	"github.com/shopfront/storefront-backend/internal/categories"
	"github.com/shopfront/storefront-backend/internal/favourites"
	"github.com/shopfront/storefront-backend/internal/photos"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/config"
	"github.com/shopfront/storefront-backend/pkg/db"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/metrics"
	"github.com/shopfront/storefront-backend/pkg/migrate"
	"github.com/shopfront/storefront-backend/pkg/redis"
	"github.com/shopfront/storefront-backend/pkg/storage"
	"github.com/shopfront/storefront-backend/pkg/storage/backend"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		rateLimiter routes.RateLimiter
		redisPinger controllers.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		rateLimiter = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(bootCtx, "redis not configured; cart endpoints disabled and admin rate limit off")
	}

	blob, err := backend.Open(bootCtx, cfg, logg)
	if err != nil {
		return err
	}
	var storagePinger controllers.Pinger
	if blob != nil {
		defer func(b storage.Blob) {
			err = multierr.Append(err, b.Close())
		}(blob)
		storagePinger = blob
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	photoMetrics := metrics.NewPhotoMetrics(registry)

	resolver := photos.NewResolver(cfg.Storage.BaseURL)
	normalizer := photos.NewNormalizer(resolver, photoMetrics)
	reconciler := photos.NewReconciler(blob, resolver, cfg.Storage.Timeout, logg, photoMetrics)

	pricing, err := product.NewPricing(cfg.Pricing.USDRate)
	if err != nil {
		return err
	}

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo, reconciler, normalizer, pricing, logg)
	if err != nil {
		return err
	}
	categoryService, err := categories.NewService(productRepo, normalizer)
	if err != nil {
		return err
	}
	favouriteService, err := favourites.NewService(favourites.ServiceParams{
		FavouriteRepo: favourites.NewRepository(dbClient.DB()),
		ProductRepo:   productRepo,
		Normalizer:    normalizer,
	})
	if err != nil {
		return err
	}

	var cartService cart.Service
	if redisClient != nil {
		cartService, err = cart.NewService(redisClient, productRepo, normalizer, cfg.Cart.TTL, logg)
		if err != nil {
			return err
		}
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		map[string]controllers.Pinger{
			"db":      dbClient,
			"redis":   redisPinger,
			"storage": storagePinger,
		},
		rateLimiter,
		registry,
		routes.Services{
			Products:   productService,
			Categories: categoryService,
			Favourites: favouriteService,
			Cart:       cartService,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Backend,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
