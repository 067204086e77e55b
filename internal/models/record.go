package models

import "time"

// Call direction values carried by tower records
const (
	CallIncoming = "incoming"
	CallOutgoing = "outgoing"
	CallMissed   = "missed"
)

// Tower represents a cell tower site referenced by activity records
type Tower struct {
	TowerID   string  `json:"tower_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ActivityRecord represents one CDR row observed at a tower.
// Latitude/Longitude carry the resolved tower coordinates.
type ActivityRecord struct {
	ID              int64     `json:"id,omitempty"`
	SubscriberID    string    `json:"subscriber_id"`
	DeviceID        string    `json:"device_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	TowerID         string    `json:"tower_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	CallDuration    *int      `json:"call_duration,omitempty"` // seconds
	CallType        string    `json:"call_type,omitempty"`
	ConnectedNumber string    `json:"connected_number,omitempty"`
	DeviceInfo      string    `json:"device_info,omitempty"` // free-form JSON
	BatchID         string    `json:"batch_id,omitempty"`
}

// LatLng is a coordinate pair in search responses
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RecordResult is one search response row with its resolved tower location
type RecordResult struct {
	SubscriberID    string `json:"subscriber_id"`
	DeviceID        string `json:"device_id,omitempty"`
	TowerID         string `json:"tower_id"`
	Timestamp       string `json:"timestamp"` // ISO-8601
	Duration        *int   `json:"duration"`
	Type            string `json:"type,omitempty"`
	ConnectedNumber string `json:"connected_number,omitempty"`
	Location        LatLng `json:"location"`
}

// NearbyTower is a tower returned by the external lookup collaborator
type NearbyTower struct {
	CellID    string  `json:"cell_id,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radio     string  `json:"radio,omitempty"`
	DistanceM float64 `json:"distance_m"`
}
