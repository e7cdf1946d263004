package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/services"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/utils"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

// userHeader identifies the recruiter authoring a definition. Authentication
// happens upstream of this service.
const userHeader = "X-User-ID"

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
	exportService     services.ExportService
}

func NewAssessmentHandler(
	assessmentService services.AssessmentService,
	exportService services.ExportService,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
		exportService:     exportService,
	}
}

// CreateAssessment creates a new assessment
// @Summary Create assessment
// @Description Creates an assessment from a definition. Invalid definitions are rejected with field errors.
// @Tags assessments
// @Accept json
// @Produce json
// @Param assessment body validator.AssessmentCreateRequest true "Assessment definition"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req validator.AssessmentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating assessment", "title", req.Title)
	assessment, err := h.assessmentService.Create(c.Request.Context(), &req, c.GetHeader(userHeader))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves an assessment by ID
// @Summary Get assessment
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} models.Assessment
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// UpdateAssessment updates an assessment
// @Summary Update assessment
// @Description Updates fields of an assessment. Sections cannot change once responses exist.
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param assessment body validator.AssessmentUpdateRequest true "Fields to update"
// @Success 200 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.AssessmentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating assessment", "assessment_id", id)
	assessment, err := h.assessmentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment deletes an assessment
// @Summary Delete assessment
// @Tags assessments
// @Param id path int true "Assessment ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", id)
	if err := h.assessmentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListAssessments lists assessments with filters
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param status query string false "Filter by status"
// @Param job_id query int false "Filter by job"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param offset query int false "Offset"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} services.AssessmentListResponse
// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	var filters repositories.AssessmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	list, err := h.assessmentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// EvaluateAssessment previews the derived state of a response set
// @Summary Evaluate responses
// @Description Returns visibility, effective required flags, validation errors and progress for an arbitrary response set
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param request body validator.EvaluateRequest true "Responses keyed by question id"
// @Success 200 {object} services.EvaluationResult
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/evaluate [post]
func (h *AssessmentHandler) EvaluateAssessment(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.assessmentService.Evaluate(c.Request.Context(), id, req.Responses)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListResponses lists the stored response sets of an assessment
// @Summary List responses
// @Tags assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Param status query string false "draft or submitted"
// @Success 200 {object} services.ResponseListResponse
// @Router /assessments/{id}/responses [get]
func (h *AssessmentHandler) ListResponses(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var filters repositories.ResponseFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	list, err := h.exportService.ListResponses(c.Request.Context(), id, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
