package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celltrack/celltrack-backend-go/internal/models"
)

func callRecord(sub, connected, callType string) models.ActivityRecord {
	return models.ActivityRecord{
		SubscriberID:    sub,
		TowerID:         "T1",
		ConnectedNumber: connected,
		CallType:        callType,
	}
}

func TestSummarizeContactGraph(t *testing.T) {
	records := []models.ActivityRecord{
		callRecord("A", "B", models.CallOutgoing),
		callRecord("A", "C", models.CallOutgoing),
		callRecord("B", "C", models.CallIncoming),
		callRecord("A", "B", models.CallOutgoing), // repeat edge, distinct call
	}

	summary := NewNetworkAnalyzer().Summarize(records)
	require.NotNil(t, summary)

	assert.Equal(t, 3, summary.TotalNodes)
	assert.Equal(t, 4, summary.TotalEdges)
	// A and B and C each connect to the other two
	assert.InDelta(t, 2.0, summary.AvgConnections, 1e-9)
	// degrees tie at 2; lexicographically smallest node wins
	assert.Equal(t, "A", summary.MostConnected)
}

func TestSummarizeIgnoresUnconnectedCalls(t *testing.T) {
	records := []models.ActivityRecord{
		callRecord("A", "", models.CallOutgoing),
		callRecord("A", "B", models.CallMissed),
		{SubscriberID: "A", TowerID: "T1"},
	}

	assert.Nil(t, NewNetworkAnalyzer().Summarize(records))
}

func TestSummarizeEmptyBatch(t *testing.T) {
	assert.Nil(t, NewNetworkAnalyzer().Summarize(nil))
}
