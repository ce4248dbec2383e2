package models

type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	Matching       QuestionType = "matching"
	Sequence       QuestionType = "sequence"
	DragDrop       QuestionType = "drag-drop"
)

// QuestionTypes lists every supported type tag.
var QuestionTypes = []QuestionType{
	SingleChoice,
	MultipleChoice,
	TrueFalse,
	Matching,
	Sequence,
	DragDrop,
}

type Question struct {
	ID         string       `json:"id" gorm:"primaryKey;size:64"`
	Text       string       `json:"text" gorm:"type:text;not null"`
	Type       QuestionType `json:"type" gorm:"not null;index;size:32"`
	MediaURL   *string      `json:"media_url" gorm:"size:500"`
	CategoryID *string      `json:"category_id" gorm:"index;size:64"`

	// Position within the test, read from test_questions
	Position int `json:"position" gorm:"->;-:migration"`
}

func (Question) TableName() string {
	return "questions"
}

// ===== ANSWER RELATIONS =====
// One gorm model per backing relation. The repository reads these relations
// as raw rows; the models exist for migrations and seeding.

// AnswerOption backs single-choice and multiple-choice questions.
type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:64"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Position   int    `json:"position" gorm:"default:0"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}

// TrueFalseOption backs true-false questions.
type TrueFalseOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:64"`
	Label      string `json:"label" gorm:"size:100;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Position   int    `json:"position" gorm:"default:0"`
}

func (TrueFalseOption) TableName() string {
	return "true_false_options"
}

type MatchingPairRow struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:64"`
	LeftText   string `json:"left_text" gorm:"type:text;not null"`
	RightText  string `json:"right_text" gorm:"type:text;not null"`
}

func (MatchingPairRow) TableName() string {
	return "matching_pairs"
}

type SequenceItem struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	QuestionID      string `json:"question_id" gorm:"not null;index;size:64"`
	Text            string `json:"text" gorm:"type:text;not null"`
	CorrectPosition int    `json:"correct_position" gorm:"not null"`
}

func (SequenceItem) TableName() string {
	return "sequence_items"
}

type DragDropItem struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:64"`
	Content    string `json:"content" gorm:"type:text;not null"`
	TargetZone string `json:"target_zone" gorm:"size:200;not null"`
}

func (DragDropItem) TableName() string {
	return "drag_drop_items"
}
