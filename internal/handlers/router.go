package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pulsecheck-labs/survey-runtime/internal/services"
	"github.com/pulsecheck-labs/survey-runtime/internal/utils"
)

type HandlerManager struct {
	runtimeHandler *RuntimeHandler
	exportHandler  *ExportHandler
}

func NewHandlerManager(
	runtimeService services.RuntimeService,
	exportService services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		runtimeHandler: NewRuntimeHandler(runtimeService, validator, logger),
		exportHandler:  NewExportHandler(exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Runtime definition routes
		runtime := v1.Group("/runtime")
		{
			runtime.GET("/:survey_id", hm.runtimeHandler.GetSurvey)
		}

		// Response session routes
		responses := v1.Group("/responses")
		{
			responses.POST("", hm.runtimeHandler.StartResponse)
			responses.GET("/:id/question", hm.runtimeHandler.CurrentQuestion)
			responses.POST("/:id/answers", hm.runtimeHandler.SubmitAnswer)
			responses.POST("/:id/advance", hm.runtimeHandler.Advance)
			responses.POST("/:id/back", hm.runtimeHandler.GoBack)
			responses.GET("/:id/progress", hm.runtimeHandler.GetProgress)
		}

		// Survey-scoped routes
		surveys := v1.Group("/surveys")
		{
			surveys.GET("/:id/responses/export", hm.exportHandler.ExportResponses)
		}
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": "survey-runtime",
	})
}
