package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/service"
	"github.com/celltrack/celltrack-backend-go/pkg/response"
)

// AnalysisHandler handles HTTP requests for on-demand analysis
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// AnalyzeMovement handles POST /api/v1/analyze/movement
func (h *AnalysisHandler) AnalyzeMovement(c *gin.Context) {
	var req struct {
		SubscriberID string `json:"subscriber_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "subscriber_id is required")
		return
	}

	result, err := h.analysisService.AnalyzeMovement(req.SubscriberID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.NotFound(c, "No data found")
			return
		}
		response.InternalError(c, "Analysis failed")
		return
	}

	response.Success(c, result)
}

// PredictLocation handles POST /api/v1/predict/location
func (h *AnalysisHandler) PredictLocation(c *gin.Context) {
	var req struct {
		SubscriberID string `json:"subscriber_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "subscriber_id is required")
		return
	}

	prediction, err := h.analysisService.PredictLocation(req.SubscriberID)
	if err != nil {
		if errors.Is(err, apperr.ErrInsufficientData) {
			response.BadRequest(c, "Insufficient data for prediction")
			return
		}
		response.InternalError(c, "Prediction failed")
		return
	}

	response.Success(c, prediction)
}

// DetectAnomalies handles POST /api/v1/detect/anomalies
func (h *AnalysisHandler) DetectAnomalies(c *gin.Context) {
	var req struct {
		SubscriberIDs []string `json:"subscriber_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "subscriber_ids are required")
		return
	}

	reports, err := h.analysisService.DetectAnomalies(req.SubscriberIDs)
	if err != nil {
		response.InternalError(c, "Anomaly detection failed")
		return
	}

	response.Success(c, gin.H{"results": reports})
}

// ListAnalyses handles GET /api/v1/analyses
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	results, err := h.analysisService.ListAnalyses(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, results)
}

// ListTowers handles GET /api/v1/towers
func (h *AnalysisHandler) ListTowers(c *gin.Context) {
	towers, err := h.analysisService.ListTowers()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, towers)
}
