package models

// AssembledQuestion is a question with its resolved answers. Degraded is set
// when the answers could not be loaded and the set is empty.
type AssembledQuestion struct {
	Question
	Answers  AnswerSet `json:"answers"`
	Degraded bool      `json:"degraded"`
}

// TestAssembly is the payload handed to the exam UI. It is built once per
// request (or decoded from cache) and never mutated afterwards.
type TestAssembly struct {
	SessionID     string              `json:"session_id"`
	Test          Test                `json:"test"`
	Questions     []AssembledQuestion `json:"questions"`
	RemainingTime int                 `json:"remaining_time"` // Seconds
}

// QuestionIDs returns the ids in presentation order.
func (a *TestAssembly) QuestionIDs() []string {
	ids := make([]string, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Clone returns a copy whose question slice can be reordered without
// touching the original. Answer lists are shared and must stay read-only.
func (a *TestAssembly) Clone() *TestAssembly {
	clone := *a
	clone.Questions = make([]AssembledQuestion, len(a.Questions))
	copy(clone.Questions, a.Questions)
	return &clone
}
