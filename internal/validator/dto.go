package validator

// AssemblyRequest represents the parameters of an assemble or questions-only call
type AssemblyRequest struct {
	TestID    string `json:"test_id" validate:"required,entity_id"`
	SessionID string `json:"session_id" validate:"omitempty,uuid"`
}

// AnswersRequest represents the parameters of a single-question answers call.
// An empty Type resolves to the stored type of the question.
type AnswersRequest struct {
	QuestionID string `json:"question_id" validate:"required,entity_id"`
	Type       string `json:"type" validate:"omitempty,question_type"`
}
