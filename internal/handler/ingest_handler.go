package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/service"
	"github.com/celltrack/celltrack-backend-go/pkg/response"
)

// IngestHandler handles HTTP requests for batch uploads
type IngestHandler struct {
	ingestService *service.IngestService
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Upload handles POST /api/v1/upload
func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No file part")
		return
	}
	if fileHeader.Filename == "" {
		response.BadRequest(c, "No selected file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read upload")
		return
	}
	defer file.Close()

	result, err := h.ingestService.IngestBatch(fileHeader.Filename, file)
	if err != nil {
		if apperr.IsValidation(err) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "Error processing file")
		return
	}

	response.Success(c, result)
}
