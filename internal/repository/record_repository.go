package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/celltrack/celltrack-backend-go/internal/models"
)

// RecordRepository handles database operations for tower records
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// InsertBatch stores a batch's towers and records inside tx. Towers are
// upserted so repeated uploads refresh coordinates; records are append-only.
func (r *RecordRepository) InsertBatch(tx *sql.Tx, batchID string, towers []models.Tower, records []models.ActivityRecord) error {
	towerStmt, err := tx.Prepare(`INSERT INTO cell_towers (tower_id, latitude, longitude) VALUES (?, ?, ?)
		ON CONFLICT(tower_id) DO UPDATE SET latitude = excluded.latitude, longitude = excluded.longitude`)
	if err != nil {
		return fmt.Errorf("failed to prepare tower insert: %w", err)
	}
	defer towerStmt.Close()

	for _, tower := range towers {
		if _, err := towerStmt.Exec(tower.TowerID, tower.Latitude, tower.Longitude); err != nil {
			return fmt.Errorf("failed to insert tower %s: %w", tower.TowerID, err)
		}
	}

	recordStmt, err := tx.Prepare(`INSERT INTO tower_records
		(subscriber_id, device_id, timestamp, tower_id, call_duration, call_type, connected_number, device_info, batch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer recordStmt.Close()

	for _, rec := range records {
		_, err := recordStmt.Exec(
			rec.SubscriberID,
			nullString(rec.DeviceID),
			rec.Timestamp.Unix(),
			rec.TowerID,
			nullInt(rec.CallDuration),
			nullString(rec.CallType),
			nullString(rec.ConnectedNumber),
			nullString(rec.DeviceInfo),
			batchID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", rec.SubscriberID, err)
		}
	}

	return nil
}

const recordColumns = `r.subscriber_id, r.device_id, r.timestamp, r.tower_id,
	r.call_duration, r.call_type, r.connected_number, t.latitude, t.longitude`

// Search executes a criteria query against the record store, returning full
// matching records with resolved tower coordinates. Result order is store
// order; callers requiring chronological order must sort.
func (r *RecordRepository) Search(query models.SearchQuery) ([]models.RecordResult, error) {
	var conditions []string
	var args []interface{}

	switch c := query.Criteria.(type) {
	case models.BySubscriber:
		conditions = append(conditions, "r.subscriber_id = ?")
		args = append(args, c.Value)
	case models.ByDevice:
		conditions = append(conditions, "r.device_id = ?")
		args = append(args, c.Value)
	case models.ByTower:
		conditions = append(conditions, "r.tower_id = ?")
		args = append(args, c.Value)
	case models.CommonLocations:
		conditions = append(conditions, `r.subscriber_id IN (
			SELECT subscriber_id FROM tower_records
			GROUP BY subscriber_id
			HAVING COUNT(DISTINCT tower_id) >= ?)`)
		args = append(args, c.MinLocations)
	case models.FrequentCallers:
		conditions = append(conditions,
			"r.connected_number = ?",
			"r.call_type IN ('incoming', 'outgoing')",
			`r.subscriber_id IN (
				SELECT subscriber_id FROM tower_records
				WHERE connected_number = ? AND call_type IN ('incoming', 'outgoing')
				GROUP BY subscriber_id
				HAVING COUNT(*) >= ?)`)
		args = append(args, c.Target, c.Target, c.MinCalls)
	case models.GeoFence:
		conditions = append(conditions,
			"t.latitude BETWEEN ? AND ?",
			"t.longitude BETWEEN ? AND ?")
		args = append(args, c.Bounds.South, c.Bounds.North, c.Bounds.West, c.Bounds.East)
	case models.CallDurationRange:
		if c.Min != nil {
			conditions = append(conditions, "r.call_duration >= ?")
			args = append(args, *c.Min)
		}
		if c.Max != nil {
			conditions = append(conditions, "r.call_duration <= ?")
			args = append(args, *c.Max)
		}
	case models.HighVolume:
		conditions = append(conditions, `r.subscriber_id IN (
			SELECT subscriber_id FROM tower_records
			GROUP BY subscriber_id
			HAVING COUNT(*) >= ?)`)
		args = append(args, c.Threshold)
	default:
		return nil, fmt.Errorf("unsupported search criteria %T", query.Criteria)
	}

	if query.StartDate != nil {
		conditions = append(conditions, "r.timestamp >= ?")
		args = append(args, query.StartDate.Unix())
	}
	if query.EndDate != nil {
		conditions = append(conditions, "r.timestamp <= ?")
		args = append(args, query.EndDate.Unix())
	}

	sqlQuery := "SELECT " + recordColumns + ` FROM tower_records r
		JOIN cell_towers t ON r.tower_id = t.tower_id
		WHERE ` + strings.Join(conditions, " AND ")

	rows, err := r.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	results := []models.RecordResult{}
	for rows.Next() {
		var (
			result    models.RecordResult
			deviceID  sql.NullString
			ts        int64
			duration  sql.NullInt64
			callType  sql.NullString
			connected sql.NullString
		)
		err := rows.Scan(
			&result.SubscriberID, &deviceID, &ts, &result.TowerID,
			&duration, &callType, &connected,
			&result.Location.Lat, &result.Location.Lng,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		result.DeviceID = deviceID.String
		result.Timestamp = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		result.Type = callType.String
		result.ConnectedNumber = connected.String
		if duration.Valid {
			d := int(duration.Int64)
			result.Duration = &d
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}

	return results, nil
}

// GetBySubscriber returns a subscriber's records in chronological order
// with resolved tower coordinates
func (r *RecordRepository) GetBySubscriber(subscriberID string) ([]models.ActivityRecord, error) {
	query := "SELECT r.id, " + recordColumns + ` FROM tower_records r
		JOIN cell_towers t ON r.tower_id = t.tower_id
		WHERE r.subscriber_id = ?
		ORDER BY r.timestamp, r.id`

	rows, err := r.db.Query(query, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetRecent returns a subscriber's most recent records, newest first
func (r *RecordRepository) GetRecent(subscriberID string, limit int) ([]models.ActivityRecord, error) {
	query := "SELECT r.id, " + recordColumns + ` FROM tower_records r
		JOIN cell_towers t ON r.tower_id = t.tower_id
		WHERE r.subscriber_id = ?
		ORDER BY r.timestamp DESC, r.id DESC
		LIMIT ?`

	rows, err := r.db.Query(query, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Features derives the anomaly feature vector for one subscriber from the
// store. The second return value reports whether the subscriber has records.
func (r *RecordRepository) Features(subscriberID string) (models.AnomalyFeatures, bool, error) {
	query := `SELECT
		COUNT(DISTINCT tower_id),
		COUNT(*),
		COALESCE(AVG(call_duration), 0),
		COALESCE(MAX(call_duration), 0),
		COUNT(DISTINCT connected_number)
		FROM tower_records WHERE subscriber_id = ?`

	var features models.AnomalyFeatures
	err := r.db.QueryRow(query, subscriberID).Scan(
		&features.TowerCount,
		&features.TotalRecords,
		&features.AvgCallDuration,
		&features.MaxCallDuration,
		&features.ContactCount,
	)
	if err != nil {
		return features, false, fmt.Errorf("failed to derive features: %w", err)
	}

	return features, features.TotalRecords > 0, nil
}

// ListTowers returns every stored tower
func (r *RecordRepository) ListTowers() ([]models.Tower, error) {
	rows, err := r.db.Query("SELECT tower_id, latitude, longitude FROM cell_towers ORDER BY tower_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query towers: %w", err)
	}
	defer rows.Close()

	towers := []models.Tower{}
	for rows.Next() {
		var t models.Tower
		if err := rows.Scan(&t.TowerID, &t.Latitude, &t.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan tower: %w", err)
		}
		towers = append(towers, t)
	}
	return towers, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	for rows.Next() {
		var (
			rec       models.ActivityRecord
			deviceID  sql.NullString
			ts        int64
			duration  sql.NullInt64
			callType  sql.NullString
			connected sql.NullString
		)
		err := rows.Scan(
			&rec.ID, &rec.SubscriberID, &deviceID, &ts, &rec.TowerID,
			&duration, &callType, &connected, &rec.Latitude, &rec.Longitude,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.DeviceID = deviceID.String
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.CallType = callType.String
		rec.ConnectedNumber = connected.String
		if duration.Valid {
			d := int(duration.Int64)
			rec.CallDuration = &d
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
