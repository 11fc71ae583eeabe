package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.SurveyResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create survey response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, id string) (*models.SurveyResponse, error) {
	var response models.SurveyResponse
	if err := r.db.WithContext(ctx).First(&response, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

// SaveItem upserts on (response_id, question_id) so a re-answered question
// keeps a single row.
func (r *ResponsePostgreSQL) SaveItem(ctx context.Context, item *models.ResponseItem) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "response_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value_number", "value_text", "value_list", "answered_at",
		}),
	}).Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to save response item: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) MarkCompleted(ctx context.Context, responseID string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SurveyResponse{}).
		Where("id = ?", responseID).
		Updates(map[string]interface{}{
			"status":       models.ResponseCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark response completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ResponsePostgreSQL) ListBySurvey(ctx context.Context, surveyID string) ([]*models.SurveyResponse, error) {
	var responses []*models.SurveyResponse
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("started_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) ListItemsBySurvey(ctx context.Context, surveyID string) ([]*models.ResponseItem, error) {
	var items []*models.ResponseItem
	err := r.db.WithContext(ctx).
		Joins("JOIN survey_responses ON survey_responses.id = response_items.response_id").
		Where("survey_responses.survey_id = ?", surveyID).
		Order("response_items.response_id, response_items.answered_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list response items: %w", err)
	}
	return items, nil
}
