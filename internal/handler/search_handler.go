package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/service"
	"github.com/celltrack/celltrack-backend-go/pkg/response"
)

// SearchHandler handles HTTP requests for record search
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid search request")
		return
	}

	results, err := h.searchService.Search(req)
	if err != nil {
		if apperr.IsValidation(err) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "Search failed")
		return
	}

	response.Success(c, results)
}
