package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
)

const exportSheet = "Responses"

// ExportService dumps a survey's collected answers to a spreadsheet: one row
// per response, one column per question, raw values only.
type ExportService interface {
	ExportResponses(ctx context.Context, surveyID string) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) ExportResponses(ctx context.Context, surveyID string) ([]byte, error) {
	survey, err := s.repo.Survey().GetByIDWithQuestions(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}

	responses, err := s.repo.Response().ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	items, err := s.repo.Response().ListItemsBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	// answers[responseID][questionID]
	answers := make(map[string]map[string]models.AnswerValue, len(responses))
	for _, item := range items {
		cells, ok := answers[item.ResponseID]
		if !ok {
			cells = make(map[string]models.AnswerValue)
			answers[item.ResponseID] = cells
		}
		cells[item.QuestionID] = item.Value()
	}

	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName(file.GetSheetName(0), exportSheet)

	header := []interface{}{"Response ID", "Email", "Status", "Started At", "Completed At"}
	for _, q := range survey.Questions {
		header = append(header, q.Text)
	}
	if err := file.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, response := range responses {
		row := []interface{}{
			response.ID,
			stringOrEmpty(response.Email),
			string(response.Status),
			response.StartedAt.Format(time.RFC3339),
		}
		if response.CompletedAt != nil {
			row = append(row, response.CompletedAt.Format(time.RFC3339))
		} else {
			row = append(row, "")
		}
		for _, q := range survey.Questions {
			row = append(row, answers[response.ID][q.ID].StringForm())
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute row cell: %w", err)
		}
		if err := file.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write response row: %w", err)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("exported survey responses",
		"survey_id", surveyID,
		"responses", len(responses),
		"answers", len(items))

	return buffer.Bytes(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
