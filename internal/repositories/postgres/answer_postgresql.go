package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

// NewAnswerPostgreSQL creates an answer reader limited to the given relations
func NewAnswerPostgreSQL(db *gorm.DB, relations []string) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(relations),
	}
}

// GetRowsByQuestionIDs reads every answer row of the given questions from one
// relation in a single query
func (a *AnswerPostgreSQL) GetRowsByQuestionIDs(ctx context.Context, relation string, orderBy string, questionIDs []string) ([]models.AnswerRow, error) {
	if err := a.helpers.ValidateRelation(relation); err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return []models.AnswerRow{}, nil
	}

	var raw []map[string]interface{}
	err := a.db.WithContext(ctx).
		Table(relation).
		Where("question_id IN ?", questionIDs).
		Order(a.helpers.SanitizeOrder(orderBy)).
		Find(&raw).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from %s: %w", relation, err)
	}

	rows := make([]models.AnswerRow, len(raw))
	for i, r := range raw {
		rows[i] = models.AnswerRow(r)
	}
	return rows, nil
}
