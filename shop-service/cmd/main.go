package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netshop/pkg/logger"
	"netshop/shop-service/internal/app/shop/config"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/handler"
	"netshop/shop-service/internal/app/shop/infrastructure"
	"netshop/shop-service/internal/app/shop/infrastructure/cache"
	"netshop/shop-service/internal/app/shop/infrastructure/messaging"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/processor"
	"netshop/shop-service/internal/app/shop/repository"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const serviceName = "shop-service"

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Log.LogstashAddr).Msg("Logstash unavailable, logging to stdout only")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	db, err := connectDB(cfg.Database, cfg.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(entity.AllModels()...); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database schema")
		}
		logger.Info().Msg("Database schema migrated")
	}

	healthChecks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Без Redis сервис работает, список подборок просто не кешируется
	var collectionCache infrastructure.CollectionCache
	redisCache, err := cache.NewRedisCache(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, collection cache disabled")
	} else {
		defer redisCache.Close()
		collectionCache = redisCache
		healthChecks["redis"] = redisCache.Ping
		logger.Info().Msg("Successfully connected to Redis")
	}

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	var publisher infrastructure.MessagePublisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka producer initialized")
	}
	defer publisher.Close()

	// === РЕПОЗИТОРИИ И СЕРВИСЫ ===
	productRepo := repository.NewProductRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	accessPolicy := policy.Default()

	catalogService := service.NewCatalogService(productRepo, collectionRepo, collectionCache, publisher, cfg.Redis.TTL)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, accessPolicy)
	reviewService := service.NewReviewService(reviewRepo, publisher, accessPolicy)

	// === CRON ===
	statusReporter := processor.NewStatusReporter(orderRepo)
	if err := statusReporter.Start(ctx, cfg.Cron.StatusReportSchedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cron.StatusReportSchedule).Msg("Failed to start status reporter")
	}
	defer statusReporter.Stop()

	// === HTTP ===
	router := handler.SetupRoutes(handler.Handlers{
		Catalog: handler.NewCatalogHandler(catalogService),
		Orders:  handler.NewOrderHandler(orderService),
		Reviews: handler.NewReviewHandler(reviewService),
		Health:  handler.NewHealthHandler(serviceName, healthChecks),
	}, handler.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.AdminRole, accessPolicy), cfg.CORS.AllowOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("Starting Shop Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error().Err(err).Msg("HTTP server failed")
	}

	logger.Info().Msg("Shutting down Shop Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Shop Service stopped gracefully")
}

// connectDB открывает GORM поверх pgx. 10 попыток, пока PostgreSQL поднимается в Docker.
func connectDB(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
				sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				sqlDB.SetConnMaxIdleTime(1 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch logger.ParseLevel(level) {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return gormlogger.Info
	case zerolog.InfoLevel, zerolog.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
