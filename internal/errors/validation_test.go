package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("survey_id", "is required", "")

	if err.Field != "survey_id" {
		t.Errorf("Expected field to be 'survey_id', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'survey_id': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("survey_id", "is required", nil))
	expected := "validation failed: survey_id is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("consent_given", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("condition", "must be a valid rule condition", "rule_condition", "between")

	if err.Rule != "rule_condition" {
		t.Errorf("Expected rule to be 'rule_condition', got '%s'", err.Rule)
	}

	if err.Field != "condition" {
		t.Errorf("Expected field to be 'condition', got '%s'", err.Field)
	}
}
