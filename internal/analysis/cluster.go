package analysis

import (
	"fmt"
	"math"

	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/stats"
)

// Noise is the cluster label for samples outside every density cluster
const Noise = -1

// ClusterAnalyzer partitions one subscriber's spatial-temporal samples into
// density-based clusters and flags suspicious dispersion. Standardization is
// scoped to each call's input; nothing is retained between calls.
type ClusterAnalyzer struct {
	// Eps is the neighborhood radius in standardized units.
	Eps float64
	// MinNeighbors is the neighborhood size (including the sample itself)
	// required for a core sample.
	MinNeighbors int
	// SuspiciousClusters is the distinct non-noise cluster count at which
	// a subscriber with at least 3 samples is flagged.
	SuspiciousClusters int
}

// NewClusterAnalyzer creates an analyzer with the default thresholds
func NewClusterAnalyzer() *ClusterAnalyzer {
	return &ClusterAnalyzer{
		Eps:                0.3,
		MinNeighbors:       2,
		SuspiciousClusters: 3,
	}
}

// Analyze clusters the given [lat, lon] samples and their parallel unix
// timestamps. The returned label sequence always has one entry per sample.
// Fewer than 2 samples is a defined edge case: zero clusters, not suspicious.
func (a *ClusterAnalyzer) Analyze(coords [][2]float64, timestamps []int64) (models.ClusterResult, error) {
	if len(coords) != len(timestamps) {
		return models.ClusterResult{}, fmt.Errorf("sample count mismatch: %d coordinates, %d timestamps", len(coords), len(timestamps))
	}

	n := len(coords)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	if n < 2 {
		return models.ClusterResult{Labels: labels}, nil
	}

	samples := a.standardize(coords, timestamps)
	clusterCount := a.cluster(samples, labels)

	return models.ClusterResult{
		Labels:       labels,
		NumClusters:  clusterCount,
		IsSuspicious: a.isSuspicious(labels),
	}, nil
}

// standardize scales lat, lon and time to zero mean and unit variance
// across this call's samples
func (a *ClusterAnalyzer) standardize(coords [][2]float64, timestamps []int64) [][]float64 {
	rows := make([][]float64, len(coords))
	for i, c := range coords {
		rows[i] = []float64{c[0], c[1], float64(timestamps[i])}
	}
	return stats.StandardizeColumns(rows)
}

// cluster runs density-reachability clustering over the standardized samples,
// writing labels in place and returning the cluster count
func (a *ClusterAnalyzer) cluster(samples [][]float64, labels []int) int {
	n := len(samples)
	visited := make([]bool, n)
	clusterID := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := a.neighborhood(samples, i)
		if len(neighbors) < a.MinNeighbors {
			continue // noise, may still be claimed as a border sample
		}

		labels[i] = clusterID
		for k := 0; k < len(neighbors); k++ {
			j := neighbors[k]
			if !visited[j] {
				visited[j] = true
				expansion := a.neighborhood(samples, j)
				if len(expansion) >= a.MinNeighbors {
					neighbors = append(neighbors, expansion...)
				}
			}
			if labels[j] == Noise {
				labels[j] = clusterID
			}
		}
		clusterID++
	}

	return clusterID
}

// neighborhood returns the indexes within Eps of sample i, including i itself
func (a *ClusterAnalyzer) neighborhood(samples [][]float64, i int) []int {
	var neighbors []int
	for j := range samples {
		if euclidean(samples[i], samples[j]) <= a.Eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// isSuspicious flags subscribers spread across several distinct clusters:
// scattered noise or one tight cluster is ordinary, three or more separate
// dense groups suggests deliberate multi-location activity
func (a *ClusterAnalyzer) isSuspicious(labels []int) bool {
	if len(labels) < 3 {
		return false
	}

	distinct := make(map[int]struct{})
	for _, l := range labels {
		if l != Noise {
			distinct[l] = struct{}{}
		}
	}
	return len(distinct) >= a.SuspiciousClusters
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
