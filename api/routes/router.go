package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopfront/storefront-backend/api/controllers"
	"github.com/shopfront/storefront-backend/api/middleware"
	"github.com/shopfront/storefront-backend/internal/cart"
	"github.com/shopfront/storefront-backend/internal/categories"
	"github.com/shopfront/storefront-backend/internal/favourites"
	product "github.com/shopfront/storefront-backend/internal/products"
	"github.com/shopfront/storefront-backend/pkg/config"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

// RateLimiter is the counter store behind the admin rate limit.
type RateLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Services bundles the domain services mounted by the router. A nil cart service
// means redis is not configured and cart endpoints answer 503.
type Services struct {
	Products   product.Service
	Categories categories.Service
	Favourites favourites.Service
	Cart       cart.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	rateLimiter RateLimiter,
	gatherer prometheus.Gatherer,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	adminPolicy := middleware.NewRateLimitPolicy("admin", cfg.Admin.RateLimitWindow, cfg.Admin.RateLimit)
	admin := func(r chi.Router) chi.Router {
		return r.With(
			middleware.RateLimit(adminPolicy, rateLimiter, logg),
			middleware.AdminAuth(cfg.Admin, logg),
		)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/ping", controllers.PublicPing())

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(svcs.Products, logg))
		r.Get("/{id}", controllers.GetProduct(svcs.Products, logg))

		a := admin(r)
		a.Post("/", controllers.CreateProduct(svcs.Products, logg))
		a.Put("/{id}", controllers.UpdateProduct(svcs.Products, logg))
		a.Delete("/{id}", controllers.DeleteProduct(svcs.Products, logg))
		a.Delete("/{id}/photos/{photoIndex}", controllers.DeleteProductPhoto(svcs.Products, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(
			middleware.RateLimit(adminPolicy, rateLimiter, logg),
			middleware.AdminAuth(cfg.Admin, logg),
		)
		r.Get("/ping", controllers.AdminPing())
		r.Get("/products", controllers.AdminListProducts(svcs.Products, logg))
		r.Get("/products/{id}", controllers.AdminGetProduct(svcs.Products, logg))
	})

	r.Route("/favourites", func(r chi.Router) {
		r.Get("/", controllers.ListFavourites(svcs.Favourites, logg))
		r.Post("/", controllers.AddFavourite(svcs.Favourites, logg))
		r.Delete("/{id}", controllers.RemoveFavourite(svcs.Favourites, logg))
	})

	r.Route("/cart/{cartId}", func(r chi.Router) {
		r.Get("/", controllers.GetCart(svcs.Cart, logg))
		r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
		r.Put("/items", controllers.SetCartItem(svcs.Cart, logg))
		r.Delete("/items/{productId}", controllers.RemoveCartItem(svcs.Cart, logg))
	})

	landing := controllers.CategoryLanding(svcs.Categories, logg)
	r.Get("/categories/{gender}", landing)
	// Legacy storefront links hit the section root directly.
	r.Get("/{gender}", landing)

	return r
}
