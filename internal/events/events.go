package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "exam-assembly-service"
	EventVersion = "1.0"
)

// Event types
const (
	AssemblyCompleted = "assembly.completed"
	AssemblyDegraded  = "assembly.degraded"
)

// Event is the envelope of everything the service publishes
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AssemblyEventData describes the outcome of one assemble call
type AssemblyEventData struct {
	TestID            string   `json:"test_id"`
	SessionID         string   `json:"session_id"`
	Tier              string   `json:"tier"`
	QuestionCount     int      `json:"question_count"`
	DegradedQuestions int      `json:"degraded_questions"`
	CacheHit          bool     `json:"cache_hit"`
	DurationMs        int64    `json:"duration_ms"`
	Errors            []string `json:"errors,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id and timestamp
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes service events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
