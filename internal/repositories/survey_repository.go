package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// SurveyRepository reads survey definitions. The runtime never writes them;
// authoring lives in a separate application.
type SurveyRepository interface {
	// GetByIDWithQuestions returns the survey with its questions ordered by
	// position, ready for the navigator.
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Survey, error)
}

// ResponseRepository persists respondent sessions and their answer cells.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.SurveyResponse) error
	GetByID(ctx context.Context, id string) (*models.SurveyResponse, error)

	// SaveItem upserts the answer cell for (response, question); re-answering
	// after back-navigation overwrites the prior value.
	SaveItem(ctx context.Context, item *models.ResponseItem) error
	MarkCompleted(ctx context.Context, responseID string, completedAt time.Time) error

	ListBySurvey(ctx context.Context, surveyID string) ([]*models.SurveyResponse, error)
	ListItemsBySurvey(ctx context.Context, surveyID string) ([]*models.ResponseItem, error)
}

// Repository aggregates repository access for the service layer.
type Repository interface {
	Survey() SurveyRepository
	Response() ResponseRepository
}

// IsNotFoundError reports whether err is a record-not-found from the store.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
