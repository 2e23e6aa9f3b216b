package analysis

import "math"

const DefaultConvergenceThreshold = 0.1
const DefaultConvergencePatience = 5
const DefaultConvergenceWindow = 3

func movingAverage(values []float64, windowSize int) []float64 {
	if windowSize <= 0 || len(values) < windowSize {
		return nil // Not enough data for the window size
	}
	averages := make([]float64, len(values)-windowSize+1)
	for i := 0; i <= len(values)-windowSize; i++ {
		sum := 0.0
		for j := i; j < i+windowSize; j++ {
			sum += values[j]
		}
		averages[i] = sum / float64(windowSize)
	}
	return averages
}

// HasConverged reports whether the moving average of the accuracies changed by at
// most threshold in each of the last patience steps.
func HasConverged(accuracies []float64, threshold float64, patience int, windowSize int) bool {
	averages := movingAverage(DropNaN(accuracies), windowSize)
	if len(averages) < patience+1 {
		return false
	}

	for i := len(averages) - patience; i < len(averages); i++ {
		improvement := averages[i] - averages[i-1]
		if math.Abs(improvement) > threshold {
			return false
		}
	}
	return true
}
