package models

import (
	"time"

	"gorm.io/datatypes"
)

type ResponseStatus string

const (
	ResponseInProgress ResponseStatus = "in_progress"
	ResponseCompleted  ResponseStatus = "completed"
	ResponseAbandoned  ResponseStatus = "abandoned"
)

// SurveyResponse is one respondent's session against a survey, created at
// consent and marked completed when navigation reaches a terminal state.
type SurveyResponse struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	SurveyID     string         `json:"survey_id" gorm:"not null;size:36;index"`
	Email        *string        `json:"email,omitempty" gorm:"size:320"`
	ConsentGiven bool           `json:"consent_given" gorm:"not null;default:false"`
	Status       ResponseStatus `json:"status" gorm:"default:in_progress;index"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// ResponseItem is one persisted answer cell. Re-submitting the same question
// (after back-navigation) upserts the row rather than adding a second one.
type ResponseItem struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ResponseID string `json:"response_id" gorm:"not null;size:36;uniqueIndex:idx_response_question"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;uniqueIndex:idx_response_question"`

	ValueNumber *float64                    `json:"value_number,omitempty"`
	ValueText   *string                     `json:"value_text,omitempty" gorm:"type:text"`
	ValueList   datatypes.JSONSlice[string] `json:"value_list,omitempty" gorm:"type:jsonb"`

	AnsweredAt time.Time `json:"answered_at"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

func (ResponseItem) TableName() string {
	return "response_items"
}

// NewResponseItem builds a persistable answer cell from a runtime value.
func NewResponseItem(responseID, questionID string, value AnswerValue, at time.Time) *ResponseItem {
	item := &ResponseItem{
		ResponseID: responseID,
		QuestionID: questionID,
		AnsweredAt: at,
	}
	switch value.Kind {
	case ValueNumber:
		n := value.Number
		item.ValueNumber = &n
	case ValueText:
		t := value.Text
		item.ValueText = &t
	case ValueList:
		item.ValueList = datatypes.NewJSONSlice(value.List)
	}
	return item
}

// Value reconstructs the runtime value from the persisted cell.
func (item *ResponseItem) Value() AnswerValue {
	switch {
	case item.ValueNumber != nil:
		return NumberValue(*item.ValueNumber)
	case item.ValueText != nil:
		return TextValue(*item.ValueText)
	case item.ValueList != nil:
		return ListValue(item.ValueList)
	default:
		return AnswerValue{}
	}
}
