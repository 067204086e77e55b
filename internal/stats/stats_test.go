package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}))
	assert.Equal(t, 2.5, Mean([]float64{2.5}))
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance([]float64{5}))
	assert.InDelta(t, 2.5, Variance([]float64{1, 2, 3, 4, 5}), 1e-9)
}

func TestPopulationVariance(t *testing.T) {
	assert.Equal(t, 0.0, PopulationVariance(nil))
	assert.InDelta(t, 2.0, PopulationVariance([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Equal(t, 0.0, PopulationVariance([]float64{7, 7, 7}))
}

func TestMinMax(t *testing.T) {
	values := []float64{3, -1, 4, 1, 5}
	assert.Equal(t, -1.0, Min(values))
	assert.Equal(t, 5.0, Max(values))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))
}

func TestQuantileInterpolates(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Quantile(values, 0))
	assert.Equal(t, 4.0, Quantile(values, 1))
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-9)
	// index = 0.25 * 3 = 0.75, between 1 and 2
	assert.InDelta(t, 1.75, Quantile(values, 0.25), 1e-9)
}

func TestQuantileUnsortedInput(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-9)
	// input must not be reordered
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestPercentile(t *testing.T) {
	values := []float64{0, 0, 0, 0, 100}

	// index = 0.975 * 4 = 3.9, between 0 and 100
	assert.InDelta(t, 90.0, Percentile(values, 97.5), 1e-9)
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 100.0, Percentile(values, 150))
}

func TestStandardize(t *testing.T) {
	scaled := Standardize([]float64{1, 2, 3})
	require.Len(t, scaled, 3)
	assert.InDelta(t, 0.0, Mean(scaled), 1e-9)
	assert.InDelta(t, 1.0, PopulationStdDev(scaled), 1e-9)
}

func TestStandardizeConstantInput(t *testing.T) {
	scaled := Standardize([]float64{5, 5, 5})
	assert.Equal(t, []float64{0, 0, 0}, scaled)
}

func TestStandardizeColumns(t *testing.T) {
	rows := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
	}

	scaled := StandardizeColumns(rows)
	require.Len(t, scaled, 3)

	// both columns scale to the same z-scores despite different magnitudes
	for i := range scaled {
		assert.InDelta(t, scaled[i][0], scaled[i][1], 1e-9)
	}
	assert.InDelta(t, -math.Sqrt(1.5), scaled[0][0], 1e-9)
	assert.InDelta(t, 0.0, scaled[1][0], 1e-9)

	assert.Nil(t, StandardizeColumns(nil))
}
