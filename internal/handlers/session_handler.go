package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/services"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/utils"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

// SessionHandler is the rendering surface of form sessions
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession opens a form session for a candidate
// @Summary Start session
// @Description Opens a session; answers already stored for the candidate are resumed
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body validator.StartSessionRequest true "Assessment and candidate"
// @Success 201 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req validator.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting session", "assessment_id", req.AssessmentID, "candidate_id", req.CandidateID)
	view, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current section, errors and progress
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetResponse records one answer
// @Summary Set response
// @Description Records an answer; a null or empty value clears it
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Param request body validator.SetResponseRequest true "Answer"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/responses/{question_id} [put]
func (h *SessionHandler) SetResponse(c *gin.Context) {
	var req validator.SetResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.sessionService.SetResponse(c.Request.Context(), c.Param("id"), c.Param("question_id"), req.Value)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// BlurQuestion marks a question as touched
// @Summary Blur question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path string true "Question ID"
// @Success 200 {object} services.SessionView
// @Router /sessions/{id}/blur/{question_id} [post]
func (h *SessionHandler) BlurQuestion(c *gin.Context) {
	view, err := h.sessionService.Blur(c.Request.Context(), c.Param("id"), c.Param("question_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Navigate moves the session to another section
// @Summary Navigate
// @Description With forward gating enabled, moving past an incomplete section returns 422 and the surfaced errors
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body validator.NavigateRequest true "Target section"
// @Success 200 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse{details=services.SessionView}
// @Router /sessions/{id}/navigate [post]
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req validator.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SectionIndex == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "section_index is required",
		})
		return
	}

	view, err := h.sessionService.Navigate(c.Request.Context(), c.Param("id"), *req.SectionIndex)
	if err != nil {
		if errors.Is(err, formsession.ErrSectionIncomplete) && view != nil {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Message: "Current section is incomplete",
				Details: view,
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveSession stores the current answers as a draft
// @Summary Save draft
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/save [post]
func (h *SessionHandler) SaveSession(c *gin.Context) {
	h.LogRequest(c, "Saving session", "session_id", c.Param("id"))
	view, err := h.sessionService.Save(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitSession validates and submits the answers
// @Summary Submit
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	h.LogRequest(c, "Submitting session", "session_id", c.Param("id"))
	view, err := h.sessionService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteSession discards a session. Stored responses are kept.
// @Summary Delete session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
