package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsecheck-labs/survey-runtime/internal/services"
	"github.com/pulsecheck-labs/survey-runtime/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves raw response exports for a survey.
type ExportHandler struct {
	BaseHandler
	service services.ExportService
}

func NewExportHandler(service services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ExportResponses streams all responses for a survey as an xlsx workbook
// @Summary Export survey responses
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Survey ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/surveys/{id}/responses/export [get]
func (h *ExportHandler) ExportResponses(c *gin.Context) {
	surveyID := ParseStringIDParam(c, "id")
	if surveyID == "" {
		return
	}

	data, err := h.service.ExportResponses(c.Request.Context(), surveyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "responses exported", "survey_id", surveyID, "bytes", len(data))

	filename := fmt.Sprintf("survey-%s-responses.xlsx", surveyID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ExportHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSurveyNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Survey not found",
		})
	case errors.Is(err, services.ErrNoResponses):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Survey has no responses to export",
		})
	default:
		h.LogError(c, err, "export failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
