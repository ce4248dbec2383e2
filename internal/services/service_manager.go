package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-assembly-service/internal/cache"
	"github.com/SAP-F-2025/exam-assembly-service/internal/events"
	"github.com/SAP-F-2025/exam-assembly-service/internal/loader"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Per-call timeout of every backing store read
	StoreTimeout time.Duration

	// Cache settings, zero TTLs use the cache defaults
	AssemblyCacheTTL time.Duration
	AnswerCacheTTL   time.Duration

	ShuffleQuestions        bool
	MaxPartitionConcurrency int
}

// DefaultServiceManagerConfig returns the defaults used when nothing is configured
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		StoreTimeout:     loader.DefaultTimeout,
		AssemblyCacheTTL: cache.AssemblyCacheConfig.TTL,
		AnswerCacheTTL:   cache.AnswerBatchCacheConfig.TTL,
		ShuffleQuestions: false,
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repoManager repositories.RepositoryManager
	store       cache.Store
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
	config      ServiceManagerConfig

	// Service instances
	assemblyService *assemblyService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager. store and publisher may be
// nil to run without a cache or without events.
func NewServiceManager(repoManager repositories.RepositoryManager, store cache.Store, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repoManager: repoManager,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		validator:   validator,
		config:      config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	repo := sm.repoManager.GetRepository()
	if repo == nil {
		return fmt.Errorf("failed to initialize services: repository not initialized")
	}

	if sm.config.AssemblyCacheTTL <= 0 {
		sm.config.AssemblyCacheTTL = cache.AssemblyCacheConfig.TTL
	}
	if sm.config.AnswerCacheTTL <= 0 {
		sm.config.AnswerCacheTTL = cache.AnswerBatchCacheConfig.TTL
	}

	reg := registry.Default()

	var assemblyCache cache.AssemblyCache
	if sm.store != nil {
		assemblyCache = cache.NewLayerWithConfig(sm.store, sm.logger,
			cache.CacheConfig{TTL: sm.config.AssemblyCacheTTL, Prefix: cache.AssemblyCacheConfig.Prefix},
			cache.CacheConfig{TTL: sm.config.AnswerCacheTTL, Prefix: cache.AnswerBatchCacheConfig.Prefix},
		)
	} else {
		sm.logger.Warn("Running without cache")
	}

	answerLoader := loader.NewAnswerLoader(repo.Answer(), assemblyCache, reg, loader.Config{
		Timeout:        sm.config.StoreTimeout,
		TTL:            sm.config.AnswerCacheTTL,
		MaxConcurrency: sm.config.MaxPartitionConcurrency,
	}, sm.logger)

	sm.assemblyService = newAssemblyService(AssemblyDeps{
		Repo:          repo,
		FallbackTests: sm.repoManager.FallbackTests(),
		Cache:         assemblyCache,
		Loader:        answerLoader,
		Registry:      reg,
		Publisher:     sm.publisher,
		Logger:        sm.logger,
		Validator:     sm.validator,
	}, AssemblyConfig{
		StoreTimeout: sm.config.StoreTimeout,
		AssemblyTTL:  sm.config.AssemblyCacheTTL,
		Shuffle:      sm.config.ShuffleQuestions,
	})
	sm.logger.Info("Assembly service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Assembly() AssemblyService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.assemblyService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	if sm.store != nil {
		if err := sm.store.Ping(ctx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	// Let pending assembly events go out before closing the publisher
	if sm.assemblyService != nil {
		done := make(chan struct{})
		go func() {
			sm.assemblyService.waitForEvents()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			sm.logger.Warn("Timed out waiting for pending events")
		}
	}

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repoManager.Shutdown(ctx); err != nil {
		sm.logger.Error("Failed to shutdown repository manager", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
