package models

import "time"

// ContactSummary summarizes a subscriber's connected-party numbers
type ContactSummary struct {
	MostFrequent     string   `json:"most_frequent"`
	ContactCount     int      `json:"contact_count"`
	FrequentContacts []string `json:"frequent_contacts"`
}

// MovementPattern is the per-subscriber aggregate derived from one batch.
// MovementPath keeps the records' order; callers needing chronological
// order must sort records by timestamp before aggregating.
type MovementPattern struct {
	SubscriberID    string          `json:"subscriber_id"`
	TowerCount      int             `json:"tower_count"`
	TotalRecords    int             `json:"total_records"`
	FirstSeen       time.Time       `json:"first_seen"`
	LastSeen        time.Time       `json:"last_seen"`
	MovementPath    [][2]float64    `json:"movement_path"` // [lat, lon]
	AvgCallDuration float64         `json:"avg_call_duration"`
	MaxCallDuration float64         `json:"max_call_duration"`
	ContactSummary  *ContactSummary `json:"contact_network,omitempty"`
}

// DateRange is the inclusive time span covered by a batch
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CallStats summarizes call durations and volumes across a batch
type CallStats struct {
	AvgDuration float64 `json:"avg_duration"`
	MaxDuration float64 `json:"max_duration"`
	TotalCalls  int     `json:"total_calls"` // incoming + outgoing
}

// BatchStats carries batch-level totals for one ingested batch
type BatchStats struct {
	TotalRecords      int       `json:"total_records"`
	UniqueSubscribers int       `json:"unique_numbers"`
	UniqueTowers      int       `json:"unique_towers"`
	DateRange         DateRange `json:"date_range"`
	CallStats         CallStats `json:"call_stats"`
}

// ClusterResult labels each spatial-temporal sample of one subscriber.
// Labels has one entry per input sample; -1 denotes noise.
type ClusterResult struct {
	Labels       []int `json:"clusters"`
	NumClusters  int   `json:"num_clusters"`
	IsSuspicious bool  `json:"is_suspicious"`
}

// PredictedLocation is a short-horizon location prediction
type PredictedLocation struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"` // 0-1
}

// NetworkSummary is the coarse contact-graph summary for a batch
type NetworkSummary struct {
	TotalNodes     int     `json:"total_nodes"`
	TotalEdges     int     `json:"total_edges"`
	AvgConnections float64 `json:"avg_connections"`
	MostConnected  string  `json:"most_connected"`
}

// SubscriberAnalysis is the enriched per-subscriber result of ingesting a batch
type SubscriberAnalysis struct {
	Pattern   MovementPattern    `json:"pattern"`
	Cluster   ClusterResult      `json:"movement_patterns"`
	IsAnomaly bool               `json:"is_anomaly"`
	Predicted *PredictedLocation `json:"predicted_next_location,omitempty"`
}

// IngestResponse is the full response for one uploaded batch
type IngestResponse struct {
	BatchID         string               `json:"batch_id"`
	AnalysisResults []SubscriberAnalysis `json:"analysis_results"`
	Statistics      BatchStats           `json:"statistics"`
	NetworkAnalysis *NetworkSummary      `json:"network_analysis,omitempty"`
}

// AnalysisResult is the persisted form of a subscriber's batch analysis.
// Results are written once per batch and never updated.
type AnalysisResult struct {
	ID             int64              `json:"id"`
	BatchID        string             `json:"batch_id"`
	AnalysisDate   time.Time          `json:"analysis_date"`
	SubscriberID   string             `json:"subscriber_id"`
	TowerCount     int                `json:"tower_count"`
	TotalRecords   int                `json:"total_records"`
	FirstSeen      time.Time          `json:"first_seen"`
	LastSeen       time.Time          `json:"last_seen"`
	MovementPath   [][2]float64       `json:"movement_path"`
	ClusterLabels  []int              `json:"cluster_labels"`
	ClusterCount   int                `json:"cluster_count"`
	IsSuspicious   bool               `json:"is_suspicious"`
	IsAnomaly      bool               `json:"is_anomaly"`
	Predicted      *PredictedLocation `json:"predicted_next_location,omitempty"`
	ContactSummary *ContactSummary    `json:"contact_network,omitempty"`
}

// AnomalyFeatures is the fixed-width feature vector scored per subscriber
type AnomalyFeatures struct {
	TowerCount      int     `json:"tower_count"`
	TotalRecords    int     `json:"total_records"`
	AvgCallDuration float64 `json:"avg_call_duration"`
	MaxCallDuration float64 `json:"max_call_duration"`
	ContactCount    int     `json:"contact_count"`
}

// Vector returns the features in scoring order
func (f AnomalyFeatures) Vector() []float64 {
	return []float64{
		float64(f.TowerCount),
		float64(f.TotalRecords),
		f.AvgCallDuration,
		f.MaxCallDuration,
		float64(f.ContactCount),
	}
}

// AnomalyReport pairs a subscriber with its anomaly flag and features
type AnomalyReport struct {
	SubscriberID string          `json:"mobile_number"`
	IsAnomaly    bool            `json:"is_anomaly"`
	Features     AnomalyFeatures `json:"features"`
}

// MovementAnalysis is the on-demand movement analysis for one subscriber
type MovementAnalysis struct {
	SubscriberID   string        `json:"subscriber_id"`
	Cluster        ClusterResult `json:"movement_analysis"`
	TotalDistanceM float64       `json:"total_distance_m"`
	NearbyTowers   []NearbyTower `json:"nearby_towers"`
}
