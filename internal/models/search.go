package models

import (
	"fmt"
	"time"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
)

// Defaults for criteria parameters left unset by the caller
const (
	DefaultMinLocations = 2
	DefaultMinCalls     = 5
	DefaultVolume       = 50
)

// Criteria is one search criteria variant. The repository dispatches on the
// concrete type, so every variant carries only its own typed fields.
type Criteria interface {
	criteria()
}

// BySubscriber matches records of one subscriber identifier
type BySubscriber struct {
	Value string
}

// ByDevice matches records of one device identifier (IMEI)
type ByDevice struct {
	Value string
}

// ByTower matches records observed at one tower
type ByTower struct {
	Value string
}

// CommonLocations matches subscribers seen at at least MinLocations distinct towers
type CommonLocations struct {
	MinLocations int
}

// FrequentCallers matches records of subscribers with at least MinCalls
// connected (incoming or outgoing) calls to Target
type FrequentCallers struct {
	Target   string
	MinCalls int
}

// Bounds is an inclusive latitude/longitude bounding box
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// GeoFence matches records whose tower falls inside the bounding box
type GeoFence struct {
	Bounds Bounds
}

// CallDurationRange matches records with a call duration inside the
// inclusive range; either bound may be nil
type CallDurationRange struct {
	Min *int
	Max *int
}

// HighVolume matches records of subscribers with at least Threshold records
type HighVolume struct {
	Threshold int
}

func (BySubscriber) criteria()      {}
func (ByDevice) criteria()          {}
func (ByTower) criteria()           {}
func (CommonLocations) criteria()   {}
func (FrequentCallers) criteria()   {}
func (GeoFence) criteria()          {}
func (CallDurationRange) criteria() {}
func (HighVolume) criteria()        {}

// SearchQuery is a decoded search request: one criteria variant plus an
// optional date range applied orthogonally to any variant.
type SearchQuery struct {
	Criteria  Criteria
	StartDate *time.Time
	EndDate   *time.Time
}

// SearchRequest is the wire shape of a search request
type SearchRequest struct {
	Type         string  `json:"type" binding:"required"`
	Value        string  `json:"value"`
	TargetNumber string  `json:"target_number"`
	MinCalls     int     `json:"min_calls"`
	MinLocations int     `json:"min_locations"`
	Bounds       *Bounds `json:"bounds"`
	MinDuration  *int    `json:"min_duration"`
	MaxDuration  *int    `json:"max_duration"`
	Threshold    int     `json:"threshold"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

// ParseSearchRequest validates a wire request and builds the typed query
func ParseSearchRequest(req SearchRequest) (SearchQuery, error) {
	var query SearchQuery

	switch req.Type {
	case "mobile":
		if req.Value == "" {
			return query, apperr.NewValidation("search value is required", "value")
		}
		query.Criteria = BySubscriber{Value: req.Value}
	case "imei":
		if req.Value == "" {
			return query, apperr.NewValidation("search value is required", "value")
		}
		query.Criteria = ByDevice{Value: req.Value}
	case "tower":
		if req.Value == "" {
			return query, apperr.NewValidation("search value is required", "value")
		}
		query.Criteria = ByTower{Value: req.Value}
	case "common_locations":
		min := req.MinLocations
		if min <= 0 {
			min = DefaultMinLocations
		}
		query.Criteria = CommonLocations{MinLocations: min}
	case "frequent_callers":
		if req.TargetNumber == "" {
			return query, apperr.NewValidation("target number is required", "target_number")
		}
		minCalls := req.MinCalls
		if minCalls <= 0 {
			minCalls = DefaultMinCalls
		}
		query.Criteria = FrequentCallers{Target: req.TargetNumber, MinCalls: minCalls}
	case "geo_fence":
		if req.Bounds == nil {
			return query, apperr.NewValidation("bounds are required", "bounds")
		}
		if req.Bounds.South > req.Bounds.North {
			return query, apperr.NewValidation("invalid bounds: south exceeds north", "bounds")
		}
		query.Criteria = GeoFence{Bounds: *req.Bounds}
	case "call_duration":
		if req.MinDuration == nil && req.MaxDuration == nil {
			return query, apperr.NewValidation("at least one duration bound is required", "min_duration", "max_duration")
		}
		query.Criteria = CallDurationRange{Min: req.MinDuration, Max: req.MaxDuration}
	case "high_volume":
		threshold := req.Threshold
		if threshold <= 0 {
			threshold = DefaultVolume
		}
		query.Criteria = HighVolume{Threshold: threshold}
	default:
		return query, apperr.NewValidation(fmt.Sprintf("unknown search type %q", req.Type), "type")
	}

	if req.StartDate != "" {
		t, err := ParseSearchDate(req.StartDate)
		if err != nil {
			return query, apperr.NewValidation("invalid start date", "start_date")
		}
		query.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := ParseSearchDate(req.EndDate)
		if err != nil {
			return query, apperr.NewValidation("invalid end date", "end_date")
		}
		query.EndDate = &t
	}

	return query, nil
}

// searchDateLayouts lists accepted date filter formats, most specific first
var searchDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseSearchDate parses a date-range boundary
func ParseSearchDate(s string) (time.Time, error) {
	for _, layout := range searchDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
