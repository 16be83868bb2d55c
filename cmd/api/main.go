package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"

	"github.com/oseilabs/storefront/internal/cache"
	"github.com/oseilabs/storefront/internal/checkout/adapters"
	httpadapter "github.com/oseilabs/storefront/internal/checkout/adapters/http"
	checkoutmemory "github.com/oseilabs/storefront/internal/checkout/adapters/memory"
	checkoutmongo "github.com/oseilabs/storefront/internal/checkout/adapters/mongo"
	checkoutpostgres "github.com/oseilabs/storefront/internal/checkout/adapters/postgres"
	"github.com/oseilabs/storefront/internal/checkout/app"
	checkoutmetrics "github.com/oseilabs/storefront/internal/checkout/metrics"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"github.com/oseilabs/storefront/internal/checkout/pricing"
	"github.com/oseilabs/storefront/internal/config"
	"github.com/oseilabs/storefront/internal/database"
	"github.com/oseilabs/storefront/internal/notify"
	"github.com/oseilabs/storefront/internal/telemetry"
)

const meterName = "github.com/oseilabs/storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := otel.Meter(meterName)

	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	notifyMetrics, err := notify.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create notification metrics", "error", err)
		os.Exit(1)
	}
	appMetrics, err := checkoutmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	storage, cleanup, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	orders := adapters.NewObservableOrderRepository(storage.orders, dbMetrics)

	var sink ports.NotificationSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaSink.Close()
		sink = kafkaSink
		logger.Info("order notifications via kafka", "brokers", cfg.Kafka.Brokers)
	} else {
		sink = notify.NewNoopSink()
		logger.Info("order notifications disabled, no kafka brokers configured")
	}
	notifier := adapters.NewObservableNotifier(sink, notifyMetrics)

	var cartCache ports.CartCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cartCache = cache.NewRedisCartCache(client, cfg.Redis.CartTTL)
		logger.Info("cart cache via redis", "addr", cfg.Redis.Addr)
	} else {
		cartCache = cache.NewNoopCartCache()
	}

	policy := pricing.FlatRate{
		TaxBasisPoints:    cfg.Checkout.TaxBasisPoints,
		ShippingFlatCents: cfg.Checkout.ShippingFlatCents,
	}

	service := app.NewService(
		storage.carts,
		orders,
		storage.store,
		storage.catalog,
		cartCache,
		notifier,
		policy,
		logger,
		appMetrics,
	)

	go runReconcileLoop(ctx, service, cfg.Checkout.ReconcileInterval, logger)

	handler := httpadapter.NewHandler(service)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(withLogging)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := storage.check(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	router.Get(cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics are exported via OTLP\n"))
	})

	handler.Register(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           httpadapter.WithMetrics(router, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "driver", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

// storageSet bundles the driver-specific adapters behind the ports.
type storageSet struct {
	carts   ports.CartRepository
	orders  ports.OrderRepository
	store   ports.CheckoutStore
	catalog ports.ProductCatalog
	check   func(context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storageSet, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("create database pool: %w", err)
		}

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("migrations completed successfully")
		}

		return &storageSet{
			carts:   checkoutpostgres.NewCartRepository(pool),
			orders:  checkoutpostgres.NewOrderRepository(pool),
			store:   checkoutpostgres.NewCheckoutStore(pool),
			catalog: checkoutpostgres.NewProductCatalog(pool),
			check: func(ctx context.Context) error {
				return database.CheckHealth(ctx, pool)
			},
		}, pool.Close, nil

	case "mongo":
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}

		db := client.Database(cfg.Mongo.Database)
		carts := checkoutmongo.NewCartRepository(db)
		orders := checkoutmongo.NewOrderRepository(db)

		if err := carts.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		if err := orders.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}

		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}

		return &storageSet{
			carts:   carts,
			orders:  orders,
			store:   checkoutmongo.NewCheckoutStore(carts, orders),
			catalog: checkoutmongo.NewProductCatalog(db),
			check: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
		}, cleanup, nil

	case "memory":
		carts := checkoutmemory.NewCartRepository()
		orders := checkoutmemory.NewOrderRepository()

		return &storageSet{
			carts:   carts,
			orders:  orders,
			store:   checkoutmemory.NewCheckoutStore(carts, orders),
			catalog: checkoutmemory.NewProductCatalog(),
			check: func(context.Context) error {
				return nil
			},
		}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// runReconcileLoop periodically finishes checkouts interrupted between the
// order write and the cart clear.
func runReconcileLoop(ctx context.Context, service *app.Service, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared, err := service.ReconcileCheckouts(ctx)
			if err != nil {
				logger.Warn("checkout reconciliation failed", "error", err)
				continue
			}
			if cleared > 0 {
				logger.Info("reconciled interrupted checkouts", "count", cleared)
			}
		}
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
