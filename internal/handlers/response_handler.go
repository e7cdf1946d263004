package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/services"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResponseHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewResponseHandler(exportService services.ExportService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportResponse downloads a submitted response set
// @Summary Export response
// @Description Returns the response set paired with question titles, as JSON or as an xlsx workbook
// @Tags responses
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Response ID"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {object} services.ResponseExport
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /responses/{id}/export [get]
func (h *ResponseHandler) ExportResponse(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "json")
	h.LogRequest(c, "Exporting response", "response_id", id, "format", format)

	switch format {
	case "json":
		export, err := h.exportService.ExportResponse(c.Request.Context(), id)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=response-%d.json", id))
		c.JSON(http.StatusOK, export)
	case "xlsx":
		data, err := h.exportService.ExportResponseXLSX(c.Request.Context(), id)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=response-%d.xlsx", id))
		c.Data(http.StatusOK, xlsxContentType, data)
	default:
		h.handleServiceError(c, services.ErrUnsupportedFormat)
	}
}
