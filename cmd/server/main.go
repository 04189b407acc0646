package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/autoparts/backend/internal/application/catalog"
	"github.com/autoparts/backend/internal/application/checkout"
	"github.com/autoparts/backend/internal/domain/inventory"
	"github.com/autoparts/backend/internal/domain/pricing"
	"github.com/autoparts/backend/internal/infrastructure/cache"
	"github.com/autoparts/backend/internal/infrastructure/config"
	"github.com/autoparts/backend/internal/infrastructure/logger"
	"github.com/autoparts/backend/internal/infrastructure/persistence"
	"github.com/autoparts/backend/internal/infrastructure/scheduler"
	"github.com/autoparts/backend/internal/infrastructure/telemetry"
	"github.com/autoparts/backend/internal/interfaces/http/handler"
	"github.com/autoparts/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting autoparts backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	metrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("marketplace"))
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}

	// Demand counters live in Redis when available so they survive
	// restarts; the in-memory store keeps single-node setups working.
	var popularity cache.PopularityStore = cache.NewMemoryPopularityStore()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		popularity = cache.NewRedisPopularityStore(redisClient, cfg.Cache.PopularityTTL)
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	stockRepo := persistence.NewGormStockRecordRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	ledger := persistence.NewGormLedger(stockRepo, movementRepo, log)
	manager := inventory.NewReservationManager(ledger, reservationRepo, log)

	engine, err := pricing.NewEngine(pricing.Config{
		ScarcitySurcharge: decimal.NewFromFloat(cfg.Pricing.ScarcitySurcharge),
		DemandSurcharge:   decimal.NewFromFloat(cfg.Pricing.DemandSurcharge),
		DemandThreshold:   decimal.NewFromFloat(cfg.Pricing.DemandThreshold),
		FloorMargin:       decimal.NewFromFloat(cfg.Pricing.FloorMargin),
		MaxMultiplier:     decimal.NewFromFloat(cfg.Pricing.MaxMultiplier),
	})
	if err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	catalogService := catalogapp.NewService(productRepo, ledger, popularity, engine, catalogapp.CacheOptions{
		QuoteTTL:     cfg.Cache.TTL,
		LoaderWindow: cfg.Cache.LoaderWindow,
		LoaderBatch:  cfg.Cache.LoaderBatch,
	}, log)
	catalogService.SetMetrics(metrics)

	if len(cfg.Cache.WarmProducts) > 0 {
		warmIDs := make([]uuid.UUID, 0, len(cfg.Cache.WarmProducts))
		for _, raw := range cfg.Cache.WarmProducts {
			id, err := uuid.Parse(raw)
			if err != nil {
				log.Warn("Skipping invalid warm product id", zap.String("id", raw))
				continue
			}
			warmIDs = append(warmIDs, id)
		}
		if err := catalogService.WarmQuotes(ctx, warmIDs); err != nil {
			log.Warn("Quote cache warm-up incomplete", zap.Error(err))
		}
	}

	checkoutService := checkout.NewService(
		orderRepo,
		manager,
		ledger,
		reservationRepo,
		catalogService,
		decimal.NewFromFloat(cfg.Tax.Rate),
		cfg.StockHold.HoldDuration,
		log,
	)
	checkoutService.SetMetrics(metrics)

	var janitor *scheduler.Janitor
	if cfg.Janitor.Enabled {
		janitor = scheduler.NewJanitor(manager, catalogService, cfg.Janitor.Interval, cfg.StockHold.TerminalRetention, log)
		janitor.SetMetrics(metrics)
		janitor.Start(ctx)
	}

	ginEngine := router.New(router.Dependencies{
		Orders:   handler.NewOrderHandler(checkoutService),
		Products: handler.NewProductHandler(catalogService),
		Logger:   log,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if janitor != nil {
		janitor.Stop()
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
