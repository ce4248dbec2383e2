package services

import (
	"context"

	"github.com/SAP-F-2025/exam-assembly-service/internal/diagnostics"
	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// ===== REQUEST/RESPONSE DTOs =====

// AssemblyResult is the outcome of an assemble call. Assembly is never nil
// when the error is nil.
type AssemblyResult struct {
	Assembly    *models.TestAssembly    `json:"assembly"`
	Diagnostics diagnostics.Diagnostics `json:"diagnostics"`
}

// ===== SERVICE INTERFACES =====

type AssemblyService interface {
	// Assemble returns a complete exam payload with a fresh session
	Assemble(ctx context.Context, testID string) (*AssemblyResult, error)

	// AssembleSession is Assemble for a known session id. The same session
	// always sees the same question order.
	AssembleSession(ctx context.Context, testID, sessionID string) (*AssemblyResult, error)

	// AssembleQuestionsOnly skips answer loading. Every question carries an
	// empty answer set of its kind. An empty sessionID starts a new session.
	AssembleQuestionsOnly(ctx context.Context, testID, sessionID string) (*AssemblyResult, error)

	// FetchAnswersForQuestion resolves the answers of one question on demand.
	// An empty questionType uses the stored type of the question.
	FetchAnswersForQuestion(ctx context.Context, questionID string, questionType models.QuestionType) (models.AnswerSet, error)

	Ping(ctx context.Context) error
}

// ServiceManager manages all services and their dependencies
type ServiceManager interface {
	Assembly() AssemblyService

	// Lifecycle management
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
