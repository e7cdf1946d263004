package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "assessment-service"
	EventVersion = "1.0"
)

const (
	ResponseDraftSaved = "assessment.response.draft_saved"
	ResponseSubmitted  = "assessment.response.submitted"
)

// Event is the envelope of every published message.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ResponseEvent is the payload of draft_saved and submitted events.
type ResponseEvent struct {
	ResponseID    uint       `json:"response_id,omitempty"`
	AssessmentID  uint       `json:"assessment_id"`
	CandidateID   string     `json:"candidate_id"`
	SessionID     string     `json:"session_id"`
	AnsweredCount int        `json:"answered_count"`
	StoredLocally bool       `json:"stored_locally"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
