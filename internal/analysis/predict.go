package analysis

import (
	"math"

	"github.com/celltrack/celltrack-backend-go/internal/models"
	"github.com/celltrack/celltrack-backend-go/internal/stats"
)

// PredictionWindow is the fixed recent-trajectory length callers feed the
// predictor when predicting from stored history.
const PredictionWindow = 24

// defaultConfidence is used when the trajectory is too short or too
// degenerate for the consistency measure.
const defaultConfidence = 0.5

// Predictor extrapolates the next location from a chronological trajectory
type Predictor struct{}

// NewPredictor creates a predictor
func NewPredictor() *Predictor {
	return &Predictor{}
}

// PredictNext linearly extrapolates the next [lat, lon] point from the last
// two and scores confidence from the whole trajectory's step consistency.
// Fewer than 2 points returns nil: no prediction, not an error.
func (p *Predictor) PredictNext(path [][2]float64) *models.PredictedLocation {
	if len(path) < 2 {
		return nil
	}

	last := path[len(path)-1]
	prev := path[len(path)-2]

	return &models.PredictedLocation{
		Latitude:   last[0] + (last[0] - prev[0]),
		Longitude:  last[1] + (last[1] - prev[1]),
		Confidence: p.confidence(path),
	}
}

// confidence measures movement consistency as 1 - (step std / step mean),
// clipped to [0, 1]. A single step or a zero mean has no measurable spread
// and falls back to the 0.5 default.
func (p *Predictor) confidence(path [][2]float64) float64 {
	steps := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		dLat := path[i][0] - path[i-1][0]
		dLon := path[i][1] - path[i-1][1]
		steps = append(steps, math.Sqrt(dLat*dLat+dLon*dLon))
	}

	if len(steps) < 2 {
		return defaultConfidence
	}

	mean := stats.Mean(steps)
	if mean == 0 {
		return defaultConfidence
	}

	consistency := 1 - stats.PopulationStdDev(steps)/mean
	if consistency < 0 {
		return 0
	}
	if consistency > 1 {
		return 1
	}
	return consistency
}
