package stats

// Standardize scales values to zero mean and unit variance. A zero-variance
// input is shifted to zero but not scaled, so constant columns contribute
// nothing to downstream distance calculations.
func Standardize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	mean := Mean(values)
	std := PopulationStdDev(values)
	if std == 0 {
		std = 1
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = (v - mean) / std
	}
	return result
}

// StandardizeColumns standardizes each column of a row-major matrix
// independently. All rows must have the same width. The scaling is local to
// this call; no state is retained across calls.
func StandardizeColumns(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}

	width := len(rows[0])
	result := make([][]float64, len(rows))
	for i := range result {
		result[i] = make([]float64, width)
	}

	column := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		scaled := Standardize(column)
		for i := range rows {
			result[i][j] = scaled[i]
		}
	}

	return result
}
