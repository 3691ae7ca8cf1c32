// Package app wires the cart service together and runs its HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/database"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/health"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/httpclient"
	pkgkafka "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/kafka"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/middleware"
	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/tracing"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/auth"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/catalog"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/config"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/event"
	handler "github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/handler/http"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository/memory"
	pgrepo "github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository/postgres"
	redisrepo "github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/repository/redis"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/service"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/migrations"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "cart"

const (
	startupTimeout  = 30 * time.Second
	catalogCacheAge = 60
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	service     *service.CartService
	producer    *pkgkafka.Producer
	httpServer  *http.Server
	closeStore  func()
	stopTracing func(context.Context) error
	stopRouter  context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
// The cart is hydrated before NewApp returns so the first request never
// sees a half-loaded cart.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	stopTracing, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, stopTracing: stopTracing, closeStore: func() {}}
	healthHandler := health.NewHandler()

	store, err := a.openStore(ctx, healthHandler)
	if err != nil {
		_ = stopTracing(context.Background())
		return nil, err
	}

	var events service.EventPublisher
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, cfg.StorageKey, logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.service = service.NewCartService(store, events, logger, service.Config{
		DefaultDurationMonths: cfg.DefaultDurationMonths,
		PersistTimeout:        service.DefaultConfig().PersistTimeout,
	})
	cart := a.service.Load(ctx)
	logger.Info("cart hydrated",
		slog.Int("items", len(cart.Items)),
		slog.Int("duration_months", cart.DurationMonths),
	)
	healthHandler.Register("cart", func(context.Context) error {
		if !a.service.Loaded() {
			return errors.New("cart not hydrated")
		}
		return nil
	})

	routerCtx, stopRouter := context.WithCancel(context.Background())
	a.stopRouter = stopRouter

	routerCfg := handler.RouterConfig{
		ServiceName:         ServiceName,
		DefaultDuration:     cfg.DefaultDurationMonths,
		PprofCIDRs:          cfg.PprofAllowedCIDRs,
		CORS:                corsConfig(cfg.CORSAllowedOrigins),
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		CatalogCacheSeconds: catalogCacheAge,
	}
	if cfg.AuthEnabled() {
		routerCfg.TokenValidator = auth.NewValidator(cfg.JWTSecret).Validate
	}

	router := handler.NewRouter(routerCtx, a.service, newCatalogClient(cfg, logger), healthHandler, logger, routerCfg)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// openStore connects the snapshot slot selected by StorageDriver and
// registers its readiness check.
func (a *App) openStore(ctx context.Context, hh *health.Handler) (repository.SnapshotStore, error) {
	switch a.cfg.StorageDriver {
	case config.StoragePostgres:
		pgCfg := a.cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		database.RegisterPoolMetrics(pool, ServiceName)
		database.SetSlowQueryLogging(200*time.Millisecond, a.logger)
		a.closeStore = pool.Close

		store := pgrepo.NewSnapshotStore(pool, a.cfg.StorageKey)
		hh.Register("postgres", store.Ping)
		return store, nil

	case config.StorageMemory:
		a.logger.Warn("using in-memory cart storage; the cart is lost on restart")
		store := memory.NewSnapshotStore()
		hh.Register("memory", store.Ping)
		return store, nil

	default:
		rdb, err := database.NewRedisClient(ctx, a.cfg.Redis(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closeStore = func() {
			if err := rdb.Close(); err != nil {
				a.logger.Error("redis close error", slog.String("error", err.Error()))
			}
		}

		store := redisrepo.NewSnapshotStore(rdb, a.cfg.StorageKey)
		hh.Register("redis", store.Ping)
		return store, nil
	}
}

// newCatalogClient builds the catalog client. Requests are not retried: a
// user is waiting, and the breaker fails fast once the catalog is down.
func newCatalogClient(cfg *config.Config, logger *slog.Logger) *catalog.Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.CatalogTimeout
	httpCfg.MaxRetries = 0

	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		logger,
	)
	return catalog.NewClient(breaker, cfg.CatalogBaseURL, logger)
}

func corsConfig(origins []string) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		c.AllowedOrigins = origins
	}
	return c
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown stops accepting requests, flushes the last cart snapshot and then
// releases the broker and storage connections.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopRouter()

	if err := a.service.Close(ctx); err != nil {
		a.logger.Error("cart flush error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.closeStore()

	if err := a.stopTracing(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
