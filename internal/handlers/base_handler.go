package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/services"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps payloads that carry a message
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the logger shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// parseIDParam reads a positive integer path parameter
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("Invalid %s", name),
		})
		return 0, false
	}
	return uint(id), true
}

// handleServiceError maps service and session errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var submissionError *formsession.SubmissionValidationError
	if errors.As(err, &submissionError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Please correct the highlighted answers before submitting",
			Details: submissionError.FieldErrors(),
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Session not found"})
	case errors.Is(err, services.ErrResponseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Response not found"})
	case errors.Is(err, formsession.ErrUnknownQuestion):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found in assessment"})
	case errors.Is(err, services.ErrAssessmentNotActive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Assessment is not accepting responses"})
	case errors.Is(err, formsession.ErrInvalidSection):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Section index out of range"})
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unsupported export format"})
	case errors.Is(err, formsession.ErrSectionIncomplete):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "Current section is incomplete"})
	case errors.Is(err, formsession.ErrSessionBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "A save or submit is already in progress"})
	case errors.Is(err, formsession.ErrSessionClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Session has already been submitted"})
	case errors.Is(err, services.ErrResponseAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Candidate has already submitted this assessment"})
	case errors.Is(err, services.ErrResponseNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Response has not been submitted yet"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
