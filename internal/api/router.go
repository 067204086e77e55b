package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celltrack/celltrack-backend-go/internal/config"
	"github.com/celltrack/celltrack-backend-go/internal/handler"
	"github.com/celltrack/celltrack-backend-go/internal/middleware"
	"github.com/celltrack/celltrack-backend-go/internal/repository"
	"github.com/celltrack/celltrack-backend-go/internal/service"
	"github.com/celltrack/celltrack-backend-go/internal/towers"
)

// SetupRouter builds the HTTP router and wires all handlers
func SetupRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(120, time.Minute))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "CellTrack Analytics API is running",
		})
	})

	recordRepo := repository.NewRecordRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	towerClient := towers.NewClient(cfg.TowerAPIURL, cfg.TowerAPIKey)

	ingestSvc := service.NewIngestService(db, recordRepo, analysisRepo)
	searchSvc := service.NewSearchService(recordRepo)
	analysisSvc := service.NewAnalysisService(recordRepo, analysisRepo, towerClient)

	ingestHandler := handler.NewIngestHandler(ingestSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	analysisHandler := handler.NewAnalysisHandler(analysisSvc)
	exportHandler := handler.NewExportHandler()
	authHandler := handler.NewAuthHandler(cfg)

	api := r.Group("/api/v1")

	if cfg.AuthEnabled() {
		api.POST("/auth/token", authHandler.IssueToken)
		api.Use(middleware.Auth(cfg.JWTSecret))
	}

	{
		api.POST("/upload", ingestHandler.Upload)
		api.POST("/search", searchHandler.Search)
		api.POST("/analyze/movement", analysisHandler.AnalyzeMovement)
		api.POST("/predict/location", analysisHandler.PredictLocation)
		api.POST("/detect/anomalies", analysisHandler.DetectAnomalies)
		api.POST("/export", exportHandler.Export)
		api.GET("/analyses", analysisHandler.ListAnalyses)
		api.GET("/towers", analysisHandler.ListTowers)
	}

	return r
}
