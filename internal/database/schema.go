package database

import (
	"database/sql"
	"fmt"
)

// schema defines the record store tables. Timestamps are stored as unix
// seconds; movement paths, cluster labels and contact summaries as JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cell_towers (
		tower_id   TEXT PRIMARY KEY,
		latitude   REAL NOT NULL,
		longitude  REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tower_records (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		subscriber_id    TEXT NOT NULL,
		device_id        TEXT,
		timestamp        INTEGER NOT NULL,
		tower_id         TEXT NOT NULL REFERENCES cell_towers(tower_id),
		call_duration    INTEGER,
		call_type        TEXT,
		connected_number TEXT,
		device_info      TEXT,
		batch_id         TEXT NOT NULL,
		created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_subscriber_timestamp ON tower_records(subscriber_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_records_device ON tower_records(device_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_connected ON tower_records(connected_number)`,
	`CREATE INDEX IF NOT EXISTS idx_records_tower_timestamp ON tower_records(tower_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id        TEXT NOT NULL,
		analysis_date   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		subscriber_id   TEXT NOT NULL,
		tower_count     INTEGER NOT NULL,
		total_records   INTEGER NOT NULL,
		first_seen      INTEGER NOT NULL,
		last_seen       INTEGER NOT NULL,
		movement_path   TEXT NOT NULL,
		cluster_labels  TEXT NOT NULL,
		cluster_count   INTEGER NOT NULL,
		is_suspicious   INTEGER NOT NULL,
		is_anomaly      INTEGER NOT NULL,
		predicted       TEXT,
		contact_summary TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_subscriber ON analysis_results(subscriber_id)`,
	`CREATE INDEX IF NOT EXISTS idx_results_batch ON analysis_results(batch_id)`,
}

// EnsureSchema creates the store tables and indexes if they do not exist
func EnsureSchema(database *sql.DB) error {
	for _, stmt := range schema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
