package postgres

import (
	"gorm.io/gorm"

	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
)

type repository struct {
	survey   repositories.SurveyRepository
	response repositories.ResponseRepository
}

// NewRepository wires the postgres-backed repositories.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		survey:   NewSurveyPostgreSQL(db),
		response: NewResponsePostgreSQL(db),
	}
}

func (r *repository) Survey() repositories.SurveyRepository {
	return r.survey
}

func (r *repository) Response() repositories.ResponseRepository {
	return r.response
}
