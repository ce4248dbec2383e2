package loader

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// ErrConflictingQuestionType is returned by Load when one question id is
// listed with two different types.
var ErrConflictingQuestionType = errors.New("conflicting question types")

// AnswerPartitionError reports that the answers of one question type could
// not be loaded. The questions of that type are served with empty answers.
type AnswerPartitionError struct {
	Type models.QuestionType
	Err  error
}

func (e *AnswerPartitionError) Error() string {
	return fmt.Sprintf("answers for %s questions unavailable: %v", e.Type, e.Err)
}

func (e *AnswerPartitionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that a stage exceeded its per-call deadline.
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
