package service

import (
	"fmt"
	"log"

	"github.com/celltrack/celltrack-backend-go/internal/analysis"
	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/repository"
	"github.com/celltrack/celltrack-backend-go/internal/spatial"
)

// TowerLookup is the external nearby-tower collaborator. A lookup failure
// must degrade to an empty result, never fail the analysis.
type TowerLookup interface {
	Nearby(lat, lon, radius float64) ([]models.NearbyTower, error)
}

// nearbyRadiusMeters bounds the nearby-tower enrichment around the last point
const nearbyRadiusMeters = 5000.0

// AnalysisService serves on-demand analysis over stored records
type AnalysisService struct {
	records   *repository.RecordRepository
	analyses  *repository.AnalysisRepository
	towers    TowerLookup
	clusters  *analysis.ClusterAnalyzer
	anomalies *analysis.AnomalyScorer
	predictor *analysis.Predictor
}

// NewAnalysisService creates an analysis service with default analyzers
func NewAnalysisService(records *repository.RecordRepository, analyses *repository.AnalysisRepository, towers TowerLookup) *AnalysisService {
	return &AnalysisService{
		records:   records,
		analyses:  analyses,
		towers:    towers,
		clusters:  analysis.NewClusterAnalyzer(),
		anomalies: analysis.NewAnomalyScorer(),
		predictor: analysis.NewPredictor(),
	}
}

// AnalyzeMovement clusters a subscriber's stored trajectory and enriches it
// with nearby towers around the last known point
func (s *AnalysisService) AnalyzeMovement(subscriberID string) (*models.MovementAnalysis, error) {
	records, err := s.records.GetBySubscriber(subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records for subscriber %s: %w", subscriberID, apperr.ErrNotFound)
	}

	coords := make([][2]float64, len(records))
	timestamps := make([]int64, len(records))
	for i, rec := range records {
		coords[i] = [2]float64{rec.Latitude, rec.Longitude}
		timestamps[i] = rec.Timestamp.Unix()
	}

	cluster, err := s.clusters.Analyze(coords, timestamps)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	last := coords[len(coords)-1]
	nearby, err := s.towers.Nearby(last[0], last[1], nearbyRadiusMeters)
	if err != nil {
		log.Printf("Nearby tower lookup degraded to empty: %v", err)
		nearby = []models.NearbyTower{}
	}

	return &models.MovementAnalysis{
		SubscriberID:   subscriberID,
		Cluster:        cluster,
		TotalDistanceM: spatial.PathDistance(coords),
		NearbyTowers:   nearby,
	}, nil
}

// PredictLocation extrapolates a subscriber's next location from their 24
// most recent records. Shorter history is an insufficient-data error.
func (s *AnalysisService) PredictLocation(subscriberID string) (*models.PredictedLocation, error) {
	records, err := s.records.GetRecent(subscriberID, analysis.PredictionWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent records: %w", err)
	}
	if len(records) < analysis.PredictionWindow {
		return nil, fmt.Errorf("prediction for %s needs %d records, have %d: %w",
			subscriberID, analysis.PredictionWindow, len(records), apperr.ErrInsufficientData)
	}

	// GetRecent returns newest first; the predictor wants chronological order.
	path := make([][2]float64, len(records))
	for i, rec := range records {
		path[len(records)-1-i] = [2]float64{rec.Latitude, rec.Longitude}
	}

	predicted := s.predictor.PredictNext(path)
	if predicted == nil {
		return nil, fmt.Errorf("prediction for %s: %w", subscriberID, apperr.ErrInsufficientData)
	}
	return predicted, nil
}

// DetectAnomalies scores the requested subscribers against each other.
// Unknown subscribers are skipped, as they contribute no features.
func (s *AnalysisService) DetectAnomalies(subscriberIDs []string) ([]models.AnomalyReport, error) {
	reports := []models.AnomalyReport{}
	features := [][]float64{}

	for _, id := range subscriberIDs {
		f, ok, err := s.records.Features(id)
		if err != nil {
			return nil, fmt.Errorf("failed to derive features for %s: %w", id, err)
		}
		if !ok {
			continue
		}
		reports = append(reports, models.AnomalyReport{SubscriberID: id, Features: f})
		features = append(features, f.Vector())
	}

	flags := s.anomalies.Score(features)
	for i := range reports {
		reports[i].IsAnomaly = flags[i]
	}

	return reports, nil
}

// ListAnalyses returns stored analysis results for the history view
func (s *AnalysisService) ListAnalyses(limit int) ([]models.AnalysisResult, error) {
	return s.analyses.List(limit)
}

// ListTowers returns stored towers for the map view
func (s *AnalysisService) ListTowers() ([]models.Tower, error) {
	return s.records.ListTowers()
}
