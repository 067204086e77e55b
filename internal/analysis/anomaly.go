package analysis

import (
	"log"

	"github.com/celltrack/celltrack-backend-go/internal/stats"
)

// AnomalyScorer flags subscribers whose feature vectors are statistical
// outliers relative to the rest of the batch. Scoring is batch-local: the
// same subscriber may or may not be flagged depending on the batch around it.
type AnomalyScorer struct {
	// Percentile is the threshold percentile (0-100) of squared
	// standardized norms above which a subscriber is flagged.
	Percentile float64
}

// NewAnomalyScorer creates a scorer with the default 97.5th percentile threshold
func NewAnomalyScorer() *AnomalyScorer {
	return &AnomalyScorer{Percentile: 97.5}
}

// Score returns one anomaly flag per feature vector. An empty batch yields a
// single false result. Malformed input degrades to all-false rather than
// failing; that conservative default is the component's only silent fallback.
func (s *AnomalyScorer) Score(features [][]float64) []bool {
	if len(features) == 0 {
		return []bool{false}
	}

	flags := make([]bool, len(features))

	width := len(features[0])
	for _, row := range features {
		if len(row) != width {
			log.Printf("anomaly scoring skipped: ragged feature matrix")
			return flags
		}
	}

	scaled := stats.StandardizeColumns(features)

	// Squared norm of the standardized vector: a monotone proxy for
	// distance from the batch centroid.
	norms := make([]float64, len(scaled))
	for i, row := range scaled {
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		norms[i] = sum
	}

	threshold := stats.Percentile(norms, s.Percentile)
	for i, norm := range norms {
		flags[i] = norm > threshold
	}

	return flags
}
