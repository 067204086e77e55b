package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celltrack/celltrack-backend-go/internal/apperr"
)

func TestParseSearchRequestValueVariants(t *testing.T) {
	query, err := ParseSearchRequest(SearchRequest{Type: "mobile", Value: "9000000001"})
	require.NoError(t, err)
	assert.Equal(t, BySubscriber{Value: "9000000001"}, query.Criteria)

	query, err = ParseSearchRequest(SearchRequest{Type: "imei", Value: "356938035643809"})
	require.NoError(t, err)
	assert.Equal(t, ByDevice{Value: "356938035643809"}, query.Criteria)

	query, err = ParseSearchRequest(SearchRequest{Type: "tower", Value: "T1"})
	require.NoError(t, err)
	assert.Equal(t, ByTower{Value: "T1"}, query.Criteria)
}

func TestParseSearchRequestValueRequired(t *testing.T) {
	for _, typ := range []string{"mobile", "imei", "tower"} {
		_, err := ParseSearchRequest(SearchRequest{Type: typ})
		assert.True(t, apperr.IsValidation(err), "type %s should require a value", typ)
	}
}

func TestParseSearchRequestDefaults(t *testing.T) {
	query, err := ParseSearchRequest(SearchRequest{Type: "common_locations"})
	require.NoError(t, err)
	assert.Equal(t, CommonLocations{MinLocations: DefaultMinLocations}, query.Criteria)

	query, err = ParseSearchRequest(SearchRequest{Type: "frequent_callers", TargetNumber: "555"})
	require.NoError(t, err)
	assert.Equal(t, FrequentCallers{Target: "555", MinCalls: DefaultMinCalls}, query.Criteria)

	query, err = ParseSearchRequest(SearchRequest{Type: "high_volume"})
	require.NoError(t, err)
	assert.Equal(t, HighVolume{Threshold: DefaultVolume}, query.Criteria)
}

func TestParseSearchRequestExplicitParameters(t *testing.T) {
	query, err := ParseSearchRequest(SearchRequest{Type: "common_locations", MinLocations: 4})
	require.NoError(t, err)
	assert.Equal(t, CommonLocations{MinLocations: 4}, query.Criteria)

	query, err = ParseSearchRequest(SearchRequest{Type: "frequent_callers", TargetNumber: "555", MinCalls: 3})
	require.NoError(t, err)
	assert.Equal(t, FrequentCallers{Target: "555", MinCalls: 3}, query.Criteria)
}

func TestParseSearchRequestFrequentCallersTargetRequired(t *testing.T) {
	_, err := ParseSearchRequest(SearchRequest{Type: "frequent_callers"})
	assert.True(t, apperr.IsValidation(err))
}

func TestParseSearchRequestGeoFence(t *testing.T) {
	bounds := Bounds{North: 10, South: 0, East: 10, West: 0}
	query, err := ParseSearchRequest(SearchRequest{Type: "geo_fence", Bounds: &bounds})
	require.NoError(t, err)
	assert.Equal(t, GeoFence{Bounds: bounds}, query.Criteria)

	_, err = ParseSearchRequest(SearchRequest{Type: "geo_fence"})
	assert.True(t, apperr.IsValidation(err))

	inverted := Bounds{North: 0, South: 10}
	_, err = ParseSearchRequest(SearchRequest{Type: "geo_fence", Bounds: &inverted})
	assert.True(t, apperr.IsValidation(err))
}

func TestParseSearchRequestCallDuration(t *testing.T) {
	min := 60
	query, err := ParseSearchRequest(SearchRequest{Type: "call_duration", MinDuration: &min})
	require.NoError(t, err)
	assert.Equal(t, CallDurationRange{Min: &min}, query.Criteria)

	_, err = ParseSearchRequest(SearchRequest{Type: "call_duration"})
	assert.True(t, apperr.IsValidation(err))
}

func TestParseSearchRequestUnknownType(t *testing.T) {
	_, err := ParseSearchRequest(SearchRequest{Type: "psychic"})
	assert.True(t, apperr.IsValidation(err))
}

func TestParseSearchRequestDateRange(t *testing.T) {
	query, err := ParseSearchRequest(SearchRequest{
		Type:      "mobile",
		Value:     "9000000001",
		StartDate: "2024-03-01",
		EndDate:   "2024-03-02 23:59:59",
	})
	require.NoError(t, err)
	require.NotNil(t, query.StartDate)
	require.NotNil(t, query.EndDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *query.StartDate)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 0, time.UTC), *query.EndDate)

	_, err = ParseSearchRequest(SearchRequest{Type: "mobile", Value: "x", StartDate: "March 1st"})
	assert.True(t, apperr.IsValidation(err))
}

func TestParseSearchDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-03-01T10:00:00Z",
		"2024-03-01 10:00:00",
		"2024-03-01T10:00:00",
		"2024-03-01",
	} {
		_, err := ParseSearchDate(s)
		assert.NoError(t, err, "layout %s", s)
	}

	_, err := ParseSearchDate("01/03/2024")
	assert.Error(t, err)
}
