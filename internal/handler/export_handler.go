package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celltrack/celltrack-backend-go/internal/export"
	"github.com/celltrack/celltrack-backend-go/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler handles HTTP requests for spreadsheet export
type ExportHandler struct{}

// NewExportHandler creates a new export handler
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// Export handles POST /api/v1/export
func (h *ExportHandler) Export(c *gin.Context) {
	var req struct {
		Columns []string   `json:"columns" binding:"required"`
		Rows    [][]string `json:"rows"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid export payload")
		return
	}

	workbook, err := export.Workbook(req.Columns, req.Rows)
	if err != nil {
		response.InternalError(c, "Error exporting data")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "analysis_results.xlsx"))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}
