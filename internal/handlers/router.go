package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/services"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/utils"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	sessionHandler    *SessionHandler
	responseHandler   *ResponseHandler
	health            func(ctx context.Context) map[string]string
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), serviceManager.Export(), logger),
		sessionHandler:    NewSessionHandler(serviceManager.Session(), logger),
		responseHandler:   NewResponseHandler(serviceManager.Export(), logger),
		health:            serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.POST("/:id/evaluate", hm.assessmentHandler.EvaluateAssessment)
			assessments.GET("/:id/responses", hm.assessmentHandler.ListResponses)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)
			sessions.PUT("/:id/responses/:question_id", hm.sessionHandler.SetResponse)
			sessions.POST("/:id/blur/:question_id", hm.sessionHandler.BlurQuestion)
			sessions.POST("/:id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:id/save", hm.sessionHandler.SaveSession)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
		}

		responses := v1.Group("/responses")
		{
			responses.GET("/:id/export", hm.responseHandler.ExportResponse)
		}
	}
}

// HealthCheck reports database and cache status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := hm.health(ctx)
	status := http.StatusOK
	if checks["database"] != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "recruit-assessment-service",
	})
}
