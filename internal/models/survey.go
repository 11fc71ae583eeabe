package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SurveyStatus string

const (
	SurveyDraft    SurveyStatus = "draft"
	SurveyActive   SurveyStatus = "active"
	SurveyPaused   SurveyStatus = "paused"
	SurveyArchived SurveyStatus = "archived"
)

type QuestionKind string

const (
	KindScale       QuestionKind = "scale"
	KindText        QuestionKind = "text"
	KindChoice      QuestionKind = "choice"
	KindMultiSelect QuestionKind = "multi_select"
	KindRating      QuestionKind = "rating"
)

type RuleCondition string

const (
	ConditionEquals      RuleCondition = "equals"
	ConditionNotEquals   RuleCondition = "not_equals"
	ConditionGreaterThan RuleCondition = "greater_than"
	ConditionLessThan    RuleCondition = "less_than"
)

// RuleTargetEnd is the sentinel rule target that terminates the survey
// immediately, distinct from any real question id.
const RuleTargetEnd = "end"

// Rating questions are always a fixed 1-5 scale.
const (
	RatingMin = 1
	RatingMax = 5
)

// Rule is a single conditional branch attached to a question. Rules are
// evaluated in list order against the answer just given; the first match wins.
type Rule struct {
	Condition       RuleCondition `json:"condition" validate:"required,rule_condition"`
	ComparisonValue string        `json:"comparison_value"`
	Target          string        `json:"target" validate:"required"`
}

type Survey struct {
	ID          string       `json:"id" gorm:"primaryKey;size:36"`
	Title       string       `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      SurveyStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft active paused archived"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Pre-sorted by Position on load; the runtime never re-sorts.
	Questions []Question `json:"questions" gorm:"foreignKey:SurveyID"`
}

type Question struct {
	ID       string       `json:"id" gorm:"primaryKey;size:36"`
	SurveyID string       `json:"survey_id" gorm:"not null;size:36;index"`
	Text     string       `json:"text" gorm:"not null;type:text" validate:"required"`
	Kind     QuestionKind `json:"kind" gorm:"not null;size:20" validate:"required,question_kind"`
	Required bool         `json:"required" gorm:"default:false"`

	// Scale bounds; only set for scale questions.
	ScaleMin      *int    `json:"scale_min,omitempty"`
	ScaleMax      *int    `json:"scale_max,omitempty"`
	ScaleMinLabel *string `json:"scale_min_label,omitempty" gorm:"size:100"`
	ScaleMaxLabel *string `json:"scale_max_label,omitempty" gorm:"size:100"`

	// Option labels for choice / multi_select questions.
	Options datatypes.JSONSlice[string] `json:"options,omitempty" gorm:"type:jsonb"`

	// Position is the question's index in the survey's default ordering.
	Position int `json:"position" gorm:"not null;index"`

	// BranchingRules may be empty; malformed rules degrade to default ordering.
	BranchingRules datatypes.JSONSlice[Rule] `json:"branching_rules,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Survey) TableName() string {
	return "surveys"
}

func (Question) TableName() string {
	return "questions"
}

// IsNumeric reports whether answers to this question kind carry numeric values.
func (k QuestionKind) IsNumeric() bool {
	return k == KindScale || k == KindRating
}
