package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/singleflight"

	"github.com/nurlanv/cbar-rates/internal/facades"
	"github.com/nurlanv/cbar-rates/internal/handlers"
	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/middlewares"
	"github.com/nurlanv/cbar-rates/internal/migrations"
	"github.com/nurlanv/cbar-rates/internal/repositories"
	"github.com/nurlanv/cbar-rates/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title cbar-rates API
// @version 1.0.0
// @description Microservice serving daily CBAR currency rates with per-day caching and manat conversions
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns, migrationsPath,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns, redisTTLSecond,
		cbarBaseURL, cbarTimeoutSecond,
		retentionDays, cleanupIntervalHour,
		kafkaAddr, kafkaTopic,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns, migrationsPath,
		redisHost, redisPort, redisDB, redisPassword,
		redisPoolSize, redisMinIdleConns, redisTTLSecond,
		cbarBaseURL, cbarTimeoutSecond,
		retentionDays, cleanupIntervalHour,
		kafkaAddr, kafkaTopic,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, upstream feed, retention, and Kafka
// configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int, migrationsPath string,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns, redisTTLSecond int,
	cbarBaseURL string, cbarTimeoutSecond int,
	retentionDays, cleanupIntervalHour int,
	kafkaAddr, kafkaTopic string,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "cbar_rates")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}
	migrationsPath = getEnv("POSTGRES_MIGRATIONS_PATH", "migrations")

	// Redis config
	redisHost = getEnv("REDIS_HOST", "localhost")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if redisPoolSize, err = strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10")); err != nil {
		return
	}
	if redisMinIdleConns, err = strconv.Atoi(getEnv("REDIS_MIN_IDLE_CONNS", "2")); err != nil {
		return
	}
	if redisTTLSecond, err = strconv.Atoi(getEnv("REDIS_TTL_SECOND", "86400")); err != nil {
		return
	}

	// Upstream feed config
	cbarBaseURL = getEnv("CBAR_BASE_URL", "https://www.cbar.az/currencies")
	if cbarTimeoutSecond, err = strconv.Atoi(getEnv("CBAR_TIMEOUT_SECOND", "10")); err != nil {
		return
	}

	// Retention config
	if retentionDays, err = strconv.Atoi(getEnv("CACHE_RETENTION_DAYS", "30")); err != nil {
		return
	}
	if cleanupIntervalHour, err = strconv.Atoi(getEnv("CACHE_CLEANUP_INTERVAL_HOUR", "24")); err != nil {
		return
	}

	// Kafka config, empty address disables publishing
	kafkaAddr = getEnv("KAFKA_ADDR", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "conversions")

	return
}

// run initializes the logger, database, Redis, Kafka writer, and HTTP server.
// It sets up routes, applies middleware, starts the retention sweeper, and
// handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int, migrationsPath string,
	redisHost string, redisPort, redisDB int, redisPassword string,
	redisPoolSize, redisMinIdleConns, redisTTLSecond int,
	cbarBaseURL string, cbarTimeoutSecond int,
	retentionDays, cleanupIntervalHour int,
	kafkaAddr, kafkaTopic string,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s:%d/%s", pgHost, pgPort, pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL ping failed: %w", err)
	}

	// Apply migrations
	if err := migrations.Run(db, migrationsPath); err != nil {
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", redisHost, redisPort),
		Password:     redisPassword,
		DB:           redisDB,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka writer, optional
	var kafkaWriter services.KafkaWriter
	if kafkaAddr != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(kafkaAddr),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
		logger.Log.Infof("Kafka writer configured for %s topic %s", kafkaAddr, kafkaTopic)
	}

	// Initialize facades
	cbarFacade := facades.NewCbarFacade(cbarBaseURL, time.Duration(cbarTimeoutSecond)*time.Second)

	// Initialize repositories
	snapshotReadRepo := repositories.NewSnapshotReadRepository(db)
	snapshotWriteRepo := repositories.NewSnapshotWriteRepository(db)
	hotCacheRepo := repositories.NewSnapshotHotCacheRepository(rdb, time.Duration(redisTTLSecond)*time.Second)
	conversionRepo := repositories.NewConversionWriteRepository(db, middlewares.GetTxFromContext)

	// Initialize services
	ratesService := services.NewRatesService(snapshotReadRepo, snapshotWriteRepo, cbarFacade, hotCacheRepo, &singleflight.Group{})
	cleanupService := services.NewCleanupService(snapshotWriteRepo, retentionDays, time.Duration(cleanupIntervalHour)*time.Hour)
	conversionService := services.NewConversionService(ratesService, conversionRepo, kafkaWriter)

	// Initialize handlers
	currenciesHandler := handlers.NewGetCurrenciesHandler(ratesService)
	currencyRateHandler := handlers.NewGetCurrencyRateHandler(ratesService)
	cacheStatusHandler := handlers.NewGetCacheStatusHandler(snapshotReadRepo)
	cacheCleanupHandler := handlers.NewCacheCleanupHandler(cleanupService)
	toManatHandler := handlers.NewConvertToManatHandler(conversionService)
	fromManatHandler := handlers.NewConvertFromManatHandler(conversionService)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/currencies", currenciesHandler)
		r.Get("/currencies/rate", currencyRateHandler)
		r.Get("/currencies/cache/status", cacheStatusHandler)
		r.Post("/currencies/cache/cleanup", cacheCleanupHandler)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.TxMiddleware(db))
			r.Post("/conversions/to-manat", toManatHandler)
			r.Post("/conversions/from-manat", fromManatHandler)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Retention sweeper
	go cleanupService.Run(ctxShutdown)

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
