package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// EventType represents different types of response lifecycle events
type EventType string

const (
	EventResponseStarted   EventType = "response.started"
	EventAnswerRecorded    EventType = "response.answer_recorded"
	EventResponseCompleted EventType = "response.completed"
)

// ResponseEvent is the envelope for all survey response events
type ResponseEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

const (
	eventSource  = "survey-runtime"
	eventVersion = "1.0"
)

// NewResponseEvent wraps a payload in the standard envelope.
func NewResponseEvent(eventType EventType, data interface{}) *ResponseEvent {
	return &ResponseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Event payloads

type ResponseStartedEvent struct {
	ResponseID string    `json:"response_id"`
	SurveyID   string    `json:"survey_id"`
	Email      *string   `json:"email,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

type AnswerRecordedEvent struct {
	ResponseID  string           `json:"response_id"`
	QuestionID  string           `json:"question_id"`
	ValueKind   models.ValueKind `json:"value_kind"`
	ValueNumber *float64         `json:"value_number,omitempty"`
	ValueText   *string          `json:"value_text,omitempty"`
	ValueList   []string         `json:"value_list,omitempty"`
	AnsweredAt  time.Time        `json:"answered_at"`
}

type ResponseCompletedEvent struct {
	ResponseID  string    `json:"response_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewAnswerRecordedEvent flattens a runtime value into the event payload.
func NewAnswerRecordedEvent(responseID, questionID string, value models.AnswerValue, at time.Time) AnswerRecordedEvent {
	event := AnswerRecordedEvent{
		ResponseID: responseID,
		QuestionID: questionID,
		ValueKind:  value.Kind,
		AnsweredAt: at,
	}
	switch value.Kind {
	case models.ValueNumber:
		n := value.Number
		event.ValueNumber = &n
	case models.ValueText:
		s := value.Text
		event.ValueText = &s
	case models.ValueList:
		event.ValueList = value.List
	}
	return event
}
