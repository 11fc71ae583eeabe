package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsecheck-labs/survey-runtime/internal/navigator"
	"github.com/pulsecheck-labs/survey-runtime/internal/services"
	"github.com/pulsecheck-labs/survey-runtime/internal/utils"
)

// RuntimeHandler serves the respondent-facing runtime API: survey definition
// fetch, response lifecycle, and per-step navigation.
type RuntimeHandler struct {
	BaseHandler
	service   services.RuntimeService
	validator *utils.Validator
}

func NewRuntimeHandler(service services.RuntimeService, validator *utils.Validator, logger utils.Logger) *RuntimeHandler {
	return &RuntimeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// GetSurvey returns an active survey definition with its ordered questions
// @Summary Get survey runtime definition
// @Tags runtime
// @Produce json
// @Param survey_id path string true "Survey ID"
// @Success 200 {object} services.SurveyView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/runtime/{survey_id} [get]
func (h *RuntimeHandler) GetSurvey(c *gin.Context) {
	surveyID := ParseStringIDParam(c, "survey_id")
	if surveyID == "" {
		return
	}

	survey, err := h.service.GetSurvey(c.Request.Context(), surveyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, survey)
}

// StartResponse creates a response row and opens a navigation session
// @Summary Start a survey response
// @Tags responses
// @Accept json
// @Produce json
// @Param request body services.StartResponseRequest true "Start request"
// @Success 201 {object} services.StartResponseResult
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/responses [post]
func (h *RuntimeHandler) StartResponse(c *gin.Context) {
	var req services.StartResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.StartResponse(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "response started", "response_id", result.ResponseID, "survey_id", req.SurveyID)
	c.JSON(http.StatusCreated, result)
}

// CurrentQuestion returns the question the session is currently on
// @Summary Get current question
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/responses/{id}/question [get]
func (h *RuntimeHandler) CurrentQuestion(c *gin.Context) {
	responseID := ParseStringIDParam(c, "id")
	if responseID == "" {
		return
	}

	view, err := h.service.CurrentQuestion(c.Request.Context(), responseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAnswer records an answer for the session's current question
// @Summary Submit an answer
// @Tags responses
// @Accept json
// @Produce json
// @Param id path string true "Response ID"
// @Param request body services.AnswerRequest true "Answer"
// @Success 200 {object} navigator.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/responses/{id}/answers [post]
func (h *RuntimeHandler) SubmitAnswer(c *gin.Context) {
	responseID := ParseStringIDParam(c, "id")
	if responseID == "" {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request format",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.SubmitAnswer(c.Request.Context(), responseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Advance moves the session to the next question per the branching rules
// @Summary Advance to the next question
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} services.StepView
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/responses/{id}/advance [post]
func (h *RuntimeHandler) Advance(c *gin.Context) {
	responseID := ParseStringIDParam(c, "id")
	if responseID == "" {
		return
	}

	step, err := h.service.Advance(c.Request.Context(), responseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, step)
}

// GoBack returns the session to the previously visited question
// @Summary Go back one question
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} services.StepView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/responses/{id}/back [post]
func (h *RuntimeHandler) GoBack(c *gin.Context) {
	responseID := ParseStringIDParam(c, "id")
	if responseID == "" {
		return
	}

	step, err := h.service.GoBack(c.Request.Context(), responseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, step)
}

// GetProgress reports how far through the survey the session is
// @Summary Get session progress
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} services.QuestionView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/responses/{id}/progress [get]
func (h *RuntimeHandler) GetProgress(c *gin.Context) {
	responseID := ParseStringIDParam(c, "id")
	if responseID == "" {
		return
	}

	view, err := h.service.Progress(c.Request.Context(), responseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// handleServiceError maps service and navigator errors to HTTP status codes
func (h *RuntimeHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSurveyNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Survey not found",
		})
	case errors.Is(err, services.ErrSurveyNotActive):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Survey is not accepting responses",
		})
	case errors.Is(err, services.ErrSurveyInvalid):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Survey definition is invalid",
		})
	case errors.Is(err, services.ErrResponseNotFound), errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No active session for this response",
		})
	case errors.Is(err, services.ErrSessionNotActive), errors.Is(err, navigator.ErrNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Session is not in progress",
		})
	case errors.Is(err, services.ErrConsentRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Consent must be given to start a survey",
		})
	case errors.Is(err, services.ErrResponseCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Response has already been completed",
		})
	case errors.Is(err, navigator.ErrNotCurrentQuestion):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Answer does not target the current question",
		})
	case errors.Is(err, navigator.ErrNoSubmission):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Current question must be answered before advancing",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
