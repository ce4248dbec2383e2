package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

// GetByTest retrieves the questions of a test in one joined query, ordered
// by their position in the test
func (q *QuestionPostgreSQL) GetByTest(ctx context.Context, testID string) ([]models.Question, error) {
	var questions []models.Question
	err := q.db.WithContext(ctx).
		Table("questions").
		Select("questions.*, test_questions.position AS position").
		Joins("JOIN test_questions ON test_questions.question_id = questions.id").
		Where("test_questions.test_id = ?", testID).
		Order("test_questions.position ASC, questions.id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for test: %w", err)
	}
	return questions, nil
}

// GetByID retrieves a single question without test placement
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NotFound("question", id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}
