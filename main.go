package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-assembly-service/internal/cache"
	"github.com/SAP-F-2025/exam-assembly-service/internal/config"
	"github.com/SAP-F-2025/exam-assembly-service/internal/events"
	"github.com/SAP-F-2025/exam-assembly-service/internal/handlers"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-assembly-service/internal/services"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
	"github.com/SAP-F-2025/exam-assembly-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	fallbackDB, err := pkg.InitFallbackDatabase(cfg)
	if err != nil {
		logger.Warn("Fallback database unavailable, using primary for fallback metadata", "error", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, using in-memory cache", "error", err)
		}
	}

	rootCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()

	// Redis outages at startup fall back to the in-memory cache
	pingCtx, cancelPing := context.WithTimeout(rootCtx, 3*time.Second)
	store := cache.ConnectStore(pingCtx, redisClient, "exam-assembly:", logger)
	cancelPing()
	if memory, ok := store.(*cache.MemoryStore); ok {
		memory.StartJanitor(rootCtx, time.Minute)
	}

	// Initialize event publisher
	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
	} else {
		publisher = events.NewWatermillPublisher(events.NewGoChannel(logger), cfg.KafkaTopic, logger)
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:         db,
		FallbackDB: fallbackDB,
		Relations:  registry.Default().Relations(),
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repoManager, store, publisher, logger, validator, services.ServiceManagerConfig{
		StoreTimeout:            cfg.StoreTimeout,
		AssemblyCacheTTL:        cfg.AssemblyCacheTTL,
		AnswerCacheTTL:          cfg.AnswerCacheTTL,
		ShuffleQuestions:        cfg.ShuffleQuestions,
		MaxPartitionConcurrency: cfg.MaxPartitionConcurrency,
	})
	if err := serviceManager.Initialize(rootCtx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown services, this drains pending events and closes the stores
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis", "error", err)
		}
	}

	logger.Info("Server exited")
}
