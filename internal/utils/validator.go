package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// Validator wraps go-playground struct validation with the custom tags used
// by the survey runtime.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with all custom tags registered.
func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate validates struct tags on s.
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// Custom validation functions

func ValidateQuestionKind(fl validator.FieldLevel) bool {
	validKinds := []models.QuestionKind{
		models.KindScale,
		models.KindText,
		models.KindChoice,
		models.KindMultiSelect,
		models.KindRating,
	}

	value := fl.Field().String()
	for _, validKind := range validKinds {
		if string(validKind) == value {
			return true
		}
	}
	return false
}

func ValidateRuleCondition(fl validator.FieldLevel) bool {
	validConditions := []models.RuleCondition{
		models.ConditionEquals,
		models.ConditionNotEquals,
		models.ConditionGreaterThan,
		models.ConditionLessThan,
	}

	value := fl.Field().String()
	for _, validCondition := range validConditions {
		if string(validCondition) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_kind", ValidateQuestionKind)
	validate.RegisterValidation("rule_condition", ValidateRuleCondition)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
