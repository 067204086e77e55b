package analysis

import (
	"github.com/celltrack/celltrack-backend-go/internal/models"
)

// NetworkAnalyzer derives a coarse contact-graph summary from a batch.
// The graph is a minor derived statistic, not a first-class entity.
type NetworkAnalyzer struct{}

// NewNetworkAnalyzer creates a network analyzer
func NewNetworkAnalyzer() *NetworkAnalyzer {
	return &NetworkAnalyzer{}
}

// Summarize builds node/edge totals over connected (incoming or outgoing)
// calls. Batches with no connected calls yield nil.
func (n *NetworkAnalyzer) Summarize(records []models.ActivityRecord) *models.NetworkSummary {
	connections := make(map[string]map[string]struct{})
	edges := 0

	link := func(a, b string) {
		if connections[a] == nil {
			connections[a] = make(map[string]struct{})
		}
		connections[a][b] = struct{}{}
	}

	for _, rec := range records {
		if rec.CallType != models.CallIncoming && rec.CallType != models.CallOutgoing {
			continue
		}
		if rec.ConnectedNumber == "" || rec.SubscriberID == "" {
			continue
		}
		edges++
		link(rec.SubscriberID, rec.ConnectedNumber)
		link(rec.ConnectedNumber, rec.SubscriberID)
	}

	if edges == 0 {
		return nil
	}

	summary := &models.NetworkSummary{
		TotalNodes: len(connections),
		TotalEdges: edges,
	}

	totalDegree := 0
	best := -1
	for node, peers := range connections {
		totalDegree += len(peers)
		if len(peers) > best || (len(peers) == best && node < summary.MostConnected) {
			summary.MostConnected = node
			best = len(peers)
		}
	}
	summary.AvgConnections = float64(totalDegree) / float64(len(connections))

	return summary
}
