// Package fallback supplies canned exam content used when the record store
// cannot be reached. Everything here is pure and needs no I/O.
package fallback

import (
	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

const (
	DefaultTestID    = "fallback-test"
	DefaultTimeLimit = 30 * 60 // Seconds
	CannedQuestionID = "fallback-question-1"
)

// CannedQuestion is the single-choice question served when the real question
// set cannot be retrieved.
func CannedQuestion() models.AssembledQuestion {
	return models.AssembledQuestion{
		Question: models.Question{
			ID:       CannedQuestionID,
			Text:     "The questions for this test could not be loaded right now. Select \"Continue\" and try again shortly.",
			Type:     models.SingleChoice,
			Position: 1,
		},
		Answers: models.NewChoiceSet([]models.ChoiceOption{
			{ID: CannedQuestionID + "-a", Text: "Continue", Correct: true, Position: 1},
			{ID: CannedQuestionID + "-b", Text: "Exit", Correct: false, Position: 2},
		}),
	}
}

// CannedTest is the synthetic test served when metadata is unavailable too.
func CannedTest(requestedID string) models.Test {
	description := "This test is temporarily unavailable. Requested test: " + requestedID
	return models.Test{
		ID:          DefaultTestID,
		Title:       "Test temporarily unavailable",
		Description: &description,
		TimeLimit:   DefaultTimeLimit,
		IsActive:    true,
	}
}

// WithCannedQuestion builds the first degradation tier: real metadata, one
// canned question.
func WithCannedQuestion(test models.Test) models.TestAssembly {
	return models.TestAssembly{
		Test:          test,
		Questions:     []models.AssembledQuestion{CannedQuestion()},
		RemainingTime: TimeLimitOrDefault(test.TimeLimit),
	}
}

// DefaultAssembly builds the second degradation tier: everything canned.
func DefaultAssembly(requestedID string) models.TestAssembly {
	return WithCannedQuestion(CannedTest(requestedID))
}

// TimeLimitOrDefault guards against tests configured without a time limit.
func TimeLimitOrDefault(seconds int) int {
	if seconds <= 0 {
		return DefaultTimeLimit
	}
	return seconds
}
