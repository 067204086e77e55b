package service

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
	"github.com/celltrack/celltrack-backend-go/internal/database"
	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.EnsureSchema(db))
	t.Cleanup(func() { db.Close() })

	return db
}

type stubTowerLookup struct {
	towers []models.NearbyTower
	err    error
}

func (s stubTowerLookup) Nearby(lat, lon, radius float64) ([]models.NearbyTower, error) {
	return s.towers, s.err
}

func seedSubscriber(t *testing.T, db *sql.DB, subscriberID string, count int) {
	t.Helper()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	towers := make([]models.Tower, 0, count)
	records := make([]models.ActivityRecord, 0, count)
	for i := 0; i < count; i++ {
		towerID := fmt.Sprintf("%s-T%d", subscriberID, i)
		towers = append(towers, models.Tower{TowerID: towerID, Latitude: float64(i), Longitude: float64(i)})
		records = append(records, models.ActivityRecord{
			SubscriberID: subscriberID,
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			TowerID:      towerID,
		})
	}

	repo := repository.NewRecordRepository(db)
	err := database.Transaction(db, func(tx *sql.Tx) error {
		return repo.InsertBatch(tx, "seed", towers, records)
	})
	require.NoError(t, err)
}

const ingestCSV = `subscriber_id,timestamp,tower_id,latitude,longitude,call_duration,call_type,connected_number
9000000001,2024-03-01 10:00:00,T1,5,5,60,outgoing,555
9000000001,2024-03-01 11:00:00,T1,5,5,120,incoming,555
9000000002,2024-03-01 10:30:00,T2,20,20,30,outgoing,9000000001
`

func TestIngestBatchPersistsRecordsAndResults(t *testing.T) {
	db := newTestDB(t)
	records := repository.NewRecordRepository(db)
	analyses := repository.NewAnalysisRepository(db)
	svc := NewIngestService(db, records, analyses)

	resp, err := svc.IngestBatch("upload.csv", strings.NewReader(ingestCSV))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.BatchID)
	require.Len(t, resp.AnalysisResults, 2)
	assert.Equal(t, "9000000001", resp.AnalysisResults[0].Pattern.SubscriberID)
	assert.Equal(t, "9000000002", resp.AnalysisResults[1].Pattern.SubscriberID)

	assert.Equal(t, 3, resp.Statistics.TotalRecords)
	assert.Equal(t, 2, resp.Statistics.UniqueSubscribers)
	assert.Equal(t, 2, resp.Statistics.UniqueTowers)
	assert.Equal(t, 3, resp.Statistics.CallStats.TotalCalls)

	require.NotNil(t, resp.NetworkAnalysis)
	assert.Equal(t, 3, resp.NetworkAnalysis.TotalNodes)
	assert.Equal(t, 3, resp.NetworkAnalysis.TotalEdges)

	// every cluster label sequence covers its subscriber's records
	assert.Len(t, resp.AnalysisResults[0].Cluster.Labels, 2)
	assert.Len(t, resp.AnalysisResults[1].Cluster.Labels, 1)

	count, err := analyses.CountForBatch(resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := records.GetBySubscriber("9000000001")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// the persisted batch round-trips through search for the same
	// subscriber and date range
	found, err := NewSearchService(records).Search(models.SearchRequest{
		Type:      "mobile",
		Value:     "9000000001",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-01 23:59:59",
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, r := range found {
		assert.Equal(t, "9000000001", r.SubscriberID)
		assert.Equal(t, "T1", r.TowerID)
	}
}

func TestIngestBatchRejectsInvalidFile(t *testing.T) {
	db := newTestDB(t)
	records := repository.NewRecordRepository(db)
	analyses := repository.NewAnalysisRepository(db)
	svc := NewIngestService(db, records, analyses)

	_, err := svc.IngestBatch("upload.csv", strings.NewReader("subscriber_id,timestamp\nx,2024-03-01 10:00:00\n"))
	require.Error(t, err)

	// nothing touched the store
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tower_records").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestAnalyzeMovement(t *testing.T) {
	db := newTestDB(t)
	seedSubscriber(t, db, "9000000001", 3)

	nearby := []models.NearbyTower{{CellID: "12345", Latitude: 2.1, Longitude: 2.1, DistanceM: 900}}
	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{towers: nearby},
	)

	result, err := svc.AnalyzeMovement("9000000001")
	require.NoError(t, err)

	assert.Equal(t, "9000000001", result.SubscriberID)
	assert.Len(t, result.Cluster.Labels, 3)
	assert.Greater(t, result.TotalDistanceM, 0.0)
	assert.Equal(t, nearby, result.NearbyTowers)
}

func TestAnalyzeMovementDegradesOnLookupFailure(t *testing.T) {
	db := newTestDB(t)
	seedSubscriber(t, db, "9000000001", 3)

	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{err: fmt.Errorf("upstream unavailable")},
	)

	result, err := svc.AnalyzeMovement("9000000001")
	require.NoError(t, err)
	assert.Empty(t, result.NearbyTowers)
	assert.NotNil(t, result.NearbyTowers)
}

func TestAnalyzeMovementUnknownSubscriber(t *testing.T) {
	db := newTestDB(t)

	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{},
	)

	_, err := svc.AnalyzeMovement("unknown")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPredictLocation(t *testing.T) {
	db := newTestDB(t)
	seedSubscriber(t, db, "9000000001", 24)

	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{},
	)

	predicted, err := svc.PredictLocation("9000000001")
	require.NoError(t, err)

	// perfectly linear trajectory 0..23 extrapolates to 24 at full confidence
	assert.InDelta(t, 24.0, predicted.Latitude, 1e-9)
	assert.InDelta(t, 24.0, predicted.Longitude, 1e-9)
	assert.InDelta(t, 1.0, predicted.Confidence, 1e-9)
}

func TestPredictLocationInsufficientHistory(t *testing.T) {
	db := newTestDB(t)
	seedSubscriber(t, db, "9000000001", 5)

	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{},
	)

	_, err := svc.PredictLocation("9000000001")
	require.ErrorIs(t, err, apperr.ErrInsufficientData)
}

func TestDetectAnomalies(t *testing.T) {
	db := newTestDB(t)
	for _, sub := range []string{"A", "B", "C", "D"} {
		seedSubscriber(t, db, sub, 2)
	}
	seedSubscriber(t, db, "heavy", 40)

	svc := NewAnalysisService(
		repository.NewRecordRepository(db),
		repository.NewAnalysisRepository(db),
		stubTowerLookup{},
	)

	reports, err := svc.DetectAnomalies([]string{"A", "B", "C", "D", "heavy", "unknown"})
	require.NoError(t, err)
	require.Len(t, reports, 5)

	flagged := map[string]bool{}
	for _, r := range reports {
		flagged[r.SubscriberID] = r.IsAnomaly
	}
	assert.True(t, flagged["heavy"])
	assert.False(t, flagged["A"])
	assert.False(t, flagged["B"])
}

func TestSearchServiceValidates(t *testing.T) {
	db := newTestDB(t)
	svc := NewSearchService(repository.NewRecordRepository(db))

	_, err := svc.Search(models.SearchRequest{Type: "mobile"})
	require.Error(t, err)

	results, err := svc.Search(models.SearchRequest{Type: "mobile", Value: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, results)
}
