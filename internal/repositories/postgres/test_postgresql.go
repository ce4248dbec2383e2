package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

// GetByID retrieves a test with its category references
func (r *TestPostgreSQL) GetByID(ctx context.Context, id string) (*models.Test, error) {
	var test models.Test
	if err := r.db.WithContext(ctx).First(&test, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.NotFound("test", id)
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

// TestFallbackPostgreSQL is the secondary metadata reader. It skips the ORM
// model and reads only the columns an exam needs, so it keeps working when
// the primary path fails on a connection or decoding problem.
type TestFallbackPostgreSQL struct {
	db *gorm.DB
}

func NewTestFallbackPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestFallbackPostgreSQL{db: db}
}

type testCoreRow struct {
	ID          string
	Title       string
	Description *string
	TimeLimit   int
	IsActive    bool
}

func (r *TestFallbackPostgreSQL) GetByID(ctx context.Context, id string) (*models.Test, error) {
	var rows []testCoreRow
	err := r.db.WithContext(ctx).
		Raw("SELECT id, title, description, time_limit, is_active FROM tests WHERE id = ? LIMIT 1", id).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get test from fallback reader: %w", err)
	}
	if len(rows) == 0 {
		return nil, repositories.NotFound("test", id)
	}
	row := rows[0]
	return &models.Test{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		TimeLimit:   row.TimeLimit,
		IsActive:    row.IsActive,
	}, nil
}
