package models

import (
	"time"

	"gorm.io/datatypes"
)

// Test is the exam definition owned by the authoring subsystem. The assembly
// engine only ever reads it.
type Test struct {
	ID          string  `json:"id" gorm:"primaryKey;size:64"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description" gorm:"type:text"`
	TimeLimit   int     `json:"time_limit" gorm:"not null;default:0"` // Seconds
	IsActive    bool    `json:"is_active" gorm:"default:true;index"`

	// Category references stored as a JSON array of category ids
	CategoryIDs datatypes.JSONSlice[string] `json:"category_ids" gorm:"type:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion links a question to a test and carries its position.
type TestQuestion struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	TestID     string `json:"test_id" gorm:"not null;index;size:64"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:64"`
	Position   int    `json:"position" gorm:"not null"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
