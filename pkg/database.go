package pkg

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/exam-assembly-service/internal/config"
)

// InitDatabase opens the primary record store
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	return openPostgres(cfg.DatabaseURL, cfg, 20)
}

// InitFallbackDatabase opens the secondary metadata connection. It returns nil
// when no fallback URL is configured.
func InitFallbackDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.FallbackDatabaseURL == "" {
		return nil, nil
	}
	return openPostgres(cfg.FallbackDatabaseURL, cfg, 4)
}

func openPostgres(dsn string, cfg *config.Config, maxOpen int) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen / 2)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// NewRedisClient creates a client from REDIS_URL
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.ReadTimeout = cfg.StoreTimeout
	opts.WriteTimeout = cfg.StoreTimeout
	return redis.NewClient(opts), nil
}
