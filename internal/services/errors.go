package services

import (
	"errors"

	apperrors "github.com/pulsecheck-labs/survey-runtime/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Survey definition errors (fatal to the session, user-visible)
	ErrSurveyNotFound  = errors.New("survey not found")
	ErrSurveyNotActive = errors.New("survey is not accepting responses")
	ErrSurveyInvalid   = errors.New("survey definition is invalid")

	// Response/session errors
	ErrResponseNotFound  = errors.New("response not found")
	ErrSessionNotFound   = errors.New("no active session for this response")
	ErrSessionNotActive  = errors.New("session is not in progress")
	ErrConsentRequired   = errors.New("consent must be given to start a survey")
	ErrResponseCompleted = errors.New("response has already been completed")

	// Export errors
	ErrNoResponses = errors.New("survey has no responses to export")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}
