package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
)

type SurveyPostgreSQL struct {
	db *gorm.DB
}

func NewSurveyPostgreSQL(db *gorm.DB) repositories.SurveyRepository {
	return &SurveyPostgreSQL{db: db}
}

// GetByIDWithQuestions retrieves a survey with questions ordered by position.
func (s *SurveyPostgreSQL) GetByIDWithQuestions(ctx context.Context, id string) (*models.Survey, error) {
	var survey models.Survey
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&survey, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}
