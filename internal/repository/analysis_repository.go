package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/celltrack/celltrack-backend-go/internal/models"
)

// AnalysisRepository handles database operations for persisted analysis results
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// InsertResults stores a batch's per-subscriber analysis results inside tx.
// The caller owns the transaction, so a failure on any subscriber rolls back
// every result of the batch.
func (r *AnalysisRepository) InsertResults(tx *sql.Tx, results []models.AnalysisResult) error {
	stmt, err := tx.Prepare(`INSERT INTO analysis_results
		(batch_id, subscriber_id, tower_count, total_records, first_seen, last_seen,
		 movement_path, cluster_labels, cluster_count, is_suspicious, is_anomaly,
		 predicted, contact_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		path, err := json.Marshal(result.MovementPath)
		if err != nil {
			return fmt.Errorf("failed to encode movement path: %w", err)
		}
		labels, err := json.Marshal(result.ClusterLabels)
		if err != nil {
			return fmt.Errorf("failed to encode cluster labels: %w", err)
		}

		var predicted interface{}
		if result.Predicted != nil {
			encoded, err := json.Marshal(result.Predicted)
			if err != nil {
				return fmt.Errorf("failed to encode prediction: %w", err)
			}
			predicted = string(encoded)
		}

		var contacts interface{}
		if result.ContactSummary != nil {
			encoded, err := json.Marshal(result.ContactSummary)
			if err != nil {
				return fmt.Errorf("failed to encode contact summary: %w", err)
			}
			contacts = string(encoded)
		}

		_, err = stmt.Exec(
			result.BatchID,
			result.SubscriberID,
			result.TowerCount,
			result.TotalRecords,
			result.FirstSeen.Unix(),
			result.LastSeen.Unix(),
			string(path),
			string(labels),
			result.ClusterCount,
			boolToInt(result.IsSuspicious),
			boolToInt(result.IsAnomaly),
			predicted,
			contacts,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", result.SubscriberID, err)
		}
	}

	return nil
}

// List returns stored analysis results, newest first
func (r *AnalysisRepository) List(limit int) ([]models.AnalysisResult, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := r.db.Query(`SELECT id, batch_id, analysis_date, subscriber_id,
		tower_count, total_records, first_seen, last_seen, movement_path,
		cluster_labels, cluster_count, is_suspicious, is_anomaly, predicted, contact_summary
		FROM analysis_results ORDER BY analysis_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.AnalysisResult{}
	for rows.Next() {
		var (
			result       models.AnalysisResult
			analysisDate sql.NullTime
			firstSeen    int64
			lastSeen     int64
			path         string
			labels       string
			suspicious   int
			anomaly      int
			predicted    sql.NullString
			contacts     sql.NullString
		)
		err := rows.Scan(
			&result.ID, &result.BatchID, &analysisDate, &result.SubscriberID,
			&result.TowerCount, &result.TotalRecords, &firstSeen, &lastSeen,
			&path, &labels, &result.ClusterCount, &suspicious, &anomaly,
			&predicted, &contacts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		if analysisDate.Valid {
			result.AnalysisDate = analysisDate.Time
		}
		result.FirstSeen = time.Unix(firstSeen, 0).UTC()
		result.LastSeen = time.Unix(lastSeen, 0).UTC()
		result.IsSuspicious = suspicious != 0
		result.IsAnomaly = anomaly != 0

		if err := json.Unmarshal([]byte(path), &result.MovementPath); err != nil {
			return nil, fmt.Errorf("failed to decode movement path: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &result.ClusterLabels); err != nil {
			return nil, fmt.Errorf("failed to decode cluster labels: %w", err)
		}
		if predicted.Valid {
			result.Predicted = &models.PredictedLocation{}
			if err := json.Unmarshal([]byte(predicted.String), result.Predicted); err != nil {
				return nil, fmt.Errorf("failed to decode prediction: %w", err)
			}
		}
		if contacts.Valid {
			result.ContactSummary = &models.ContactSummary{}
			if err := json.Unmarshal([]byte(contacts.String), result.ContactSummary); err != nil {
				return nil, fmt.Errorf("failed to decode contact summary: %w", err)
			}
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

// CountForBatch returns the number of stored results for one batch
func (r *AnalysisRepository) CountForBatch(batchID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM analysis_results WHERE batch_id = ?", batchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
