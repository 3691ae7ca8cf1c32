package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/health"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/middleware"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/service"
)

// RouterConfig holds the knobs of the HTTP surface.
type RouterConfig struct {
	ServiceName     string
	DefaultDuration int
	PprofCIDRs      []string
	CORS            middleware.CORSConfig
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	// CatalogCacheSeconds is the public max-age of catalog reads.
	CatalogCacheSeconds int
	// TokenValidator guards the cart routes. Nil leaves them open.
	TokenValidator middleware.TokenValidator
}

// NewRouter creates a chi router with all cart service routes registered.
// ctx bounds background work such as rate limiter cleanup.
func NewRouter(
	ctx context.Context,
	cartService *service.CartService,
	products ProductCatalog,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cart"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cartService, products, logger)
	catalogHandler := NewCatalogHandler(products, logger)
	pricingHandler := NewPricingHandler(cfg.DefaultDuration, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			if cfg.TokenValidator != nil {
				r.Use(middleware.Auth(cfg.TokenValidator))
				r.Use(middleware.RequestLogger(logger))
			}
			r.Use(middleware.NoStore)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Put("/duration", cartHandler.SetDuration)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{itemId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{itemId}", cartHandler.RemoveItem)

			r.Post("/products/{productId}", cartHandler.AddProduct)
		})

		r.Route("/catalog/products", func(r chi.Router) {
			if cfg.CatalogCacheSeconds > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogCacheSeconds))
			}
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/{productId}", catalogHandler.GetProduct)
		})

		r.Post("/pricing/quote", pricingHandler.Quote)
	})

	return r
}
