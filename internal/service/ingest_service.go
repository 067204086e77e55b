package service

import (
	"database/sql"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/celltrack/celltrack-backend-go/internal/analysis"
	"github.com/celltrack/celltrack-backend-go/internal/database"
	"github.com/celltrack/celltrack-backend-go/internal/ingest"
	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/repository"
)

// IngestService runs the batch pipeline: parse, aggregate, analyze, persist.
// Records and analysis results of one batch are committed atomically.
type IngestService struct {
	db         *sql.DB
	records    *repository.RecordRepository
	analyses   *repository.AnalysisRepository
	aggregator *analysis.Aggregator
	clusters   *analysis.ClusterAnalyzer
	anomalies  *analysis.AnomalyScorer
	predictor  *analysis.Predictor
	network    *analysis.NetworkAnalyzer
}

// NewIngestService creates an ingest service with default analyzers
func NewIngestService(db *sql.DB, records *repository.RecordRepository, analyses *repository.AnalysisRepository) *IngestService {
	return &IngestService{
		db:         db,
		records:    records,
		analyses:   analyses,
		aggregator: analysis.NewAggregator(),
		clusters:   analysis.NewClusterAnalyzer(),
		anomalies:  analysis.NewAnomalyScorer(),
		predictor:  analysis.NewPredictor(),
		network:    analysis.NewNetworkAnalyzer(),
	}
}

// IngestBatch processes one uploaded file as a batch. A validation error
// rejects the batch before anything touches the store; a persistence error
// rolls the whole batch back.
func (s *IngestService) IngestBatch(filename string, r io.Reader) (*models.IngestResponse, error) {
	rows, err := ingest.ParseFile(filename, r)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	towers, records := toRecords(batchID, rows)

	// Analysis consumes chronological trajectories; sort once so every
	// subscriber's path and timestamps line up in time order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	patterns, batchStats, err := s.aggregator.Aggregate(records)
	if err != nil {
		return nil, err
	}

	timestamps := make(map[string][]int64)
	for _, rec := range records {
		timestamps[rec.SubscriberID] = append(timestamps[rec.SubscriberID], rec.Timestamp.Unix())
	}

	features := make([][]float64, len(patterns))
	for i, pattern := range patterns {
		frequent := 0
		if pattern.ContactSummary != nil {
			frequent = len(pattern.ContactSummary.FrequentContacts)
		}
		features[i] = models.AnomalyFeatures{
			TowerCount:      pattern.TowerCount,
			TotalRecords:    pattern.TotalRecords,
			AvgCallDuration: pattern.AvgCallDuration,
			MaxCallDuration: pattern.MaxCallDuration,
			ContactCount:    frequent,
		}.Vector()
	}
	anomalyFlags := s.anomalies.Score(features)

	subscriberAnalyses := make([]models.SubscriberAnalysis, 0, len(patterns))
	results := make([]models.AnalysisResult, 0, len(patterns))
	for i, pattern := range patterns {
		cluster, err := s.clusters.Analyze(pattern.MovementPath, timestamps[pattern.SubscriberID])
		if err != nil {
			return nil, fmt.Errorf("clustering failed for %s: %w", pattern.SubscriberID, err)
		}

		var predicted *models.PredictedLocation
		if len(pattern.MovementPath) >= analysis.PredictionWindow {
			window := pattern.MovementPath[len(pattern.MovementPath)-analysis.PredictionWindow:]
			predicted = s.predictor.PredictNext(window)
		}

		subscriberAnalyses = append(subscriberAnalyses, models.SubscriberAnalysis{
			Pattern:   pattern,
			Cluster:   cluster,
			IsAnomaly: anomalyFlags[i],
			Predicted: predicted,
		})
		results = append(results, models.AnalysisResult{
			BatchID:        batchID,
			SubscriberID:   pattern.SubscriberID,
			TowerCount:     pattern.TowerCount,
			TotalRecords:   pattern.TotalRecords,
			FirstSeen:      pattern.FirstSeen,
			LastSeen:       pattern.LastSeen,
			MovementPath:   pattern.MovementPath,
			ClusterLabels:  cluster.Labels,
			ClusterCount:   cluster.NumClusters,
			IsSuspicious:   cluster.IsSuspicious,
			IsAnomaly:      anomalyFlags[i],
			Predicted:      predicted,
			ContactSummary: pattern.ContactSummary,
		})
	}

	err = database.Transaction(s.db, func(tx *sql.Tx) error {
		if err := s.records.InsertBatch(tx, batchID, towers, records); err != nil {
			return err
		}
		return s.analyses.InsertResults(tx, results)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist batch: %w", err)
	}

	return &models.IngestResponse{
		BatchID:         batchID,
		AnalysisResults: subscriberAnalyses,
		Statistics:      batchStats,
		NetworkAnalysis: s.network.Summarize(records),
	}, nil
}

// toRecords converts parsed rows to store entities, deduplicating towers.
// The last occurrence of a tower wins, matching the upsert semantics.
func toRecords(batchID string, rows []ingest.Row) ([]models.Tower, []models.ActivityRecord) {
	towerIndex := make(map[string]int)
	towers := make([]models.Tower, 0)
	records := make([]models.ActivityRecord, 0, len(rows))

	for _, row := range rows {
		tower := models.Tower{TowerID: row.TowerID, Latitude: row.Latitude, Longitude: row.Longitude}
		if idx, ok := towerIndex[row.TowerID]; ok {
			towers[idx] = tower
		} else {
			towerIndex[row.TowerID] = len(towers)
			towers = append(towers, tower)
		}

		records = append(records, models.ActivityRecord{
			SubscriberID:    row.SubscriberID,
			DeviceID:        row.DeviceID,
			Timestamp:       row.Timestamp,
			TowerID:         row.TowerID,
			Latitude:        row.Latitude,
			Longitude:       row.Longitude,
			CallDuration:    row.CallDuration,
			CallType:        row.CallType,
			ConnectedNumber: row.ConnectedNumber,
			DeviceInfo:      row.DeviceInfo,
			BatchID:         batchID,
		})
	}

	return towers, records
}
