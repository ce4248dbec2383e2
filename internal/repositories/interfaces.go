package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// TestRepository reads test metadata
type TestRepository interface {
	GetByID(ctx context.Context, id string) (*models.Test, error)
}

// QuestionRepository reads questions and their placement in tests
type QuestionRepository interface {
	// GetByTest returns the questions of a test ordered by position
	GetByTest(ctx context.Context, testID string) ([]models.Question, error)
	GetByID(ctx context.Context, id string) (*models.Question, error)
}

// AnswerRepository reads raw answer rows from one of the answer relations
type AnswerRepository interface {
	// GetRowsByQuestionIDs issues a single query filtered by question_id IN ids
	GetRowsByQuestionIDs(ctx context.Context, relation string, orderBy string, questionIDs []string) ([]models.AnswerRow, error)
}
