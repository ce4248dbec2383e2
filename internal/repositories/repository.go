package repositories

import "context"

// Repository groups the read-only repositories the assembly engine uses
type Repository interface {
	Test() TestRepository
	Question() QuestionRepository
	Answer() AnswerRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// FallbackTests returns the secondary metadata reader, or nil when none is configured
	FallbackTests() TestRepository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
