package analysis

import (
	"fmt"
	"math"
)

// PerformancePrediction extrapolates the accuracy curve of a run over rounds.
type PerformancePrediction struct {
	accuracy Regression
}

// NewPerformancePrediction fits the accuracy curve; NaN accuracies are skipped and
// round 0 (the initial evaluation) is ignored.
func NewPerformancePrediction(rounds []float64, accuracies []float64) (*PerformancePrediction, error) {
	xs := []float64{}
	ys := []float64{}
	for i, round := range rounds {
		if round <= 0 || math.IsNaN(round) || math.IsNaN(accuracies[i]) {
			continue
		}
		xs = append(xs, round)
		ys = append(ys, accuracies[i])
	}

	regression, err := NewLogarithmicRegression(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("cannot fit accuracy curve: %w", err)
	}
	return &PerformancePrediction{accuracy: regression}, nil
}

func (pp *PerformancePrediction) PredictAccuracy(round int) float64 {
	return pp.accuracy.PredictY(float64(round))
}

// PredictRoundForAccuracy returns the first round expected to reach accuracy, or -1
// if the fitted curve never gets there.
func (pp *PerformancePrediction) PredictRoundForAccuracy(accuracy float64) int {
	round := math.Ceil(pp.accuracy.PredictX(accuracy))
	if math.IsNaN(round) || math.IsInf(round, 0) || round > math.MaxInt32 {
		return -1
	}
	if round < 0 {
		return 0
	}
	return int(round)
}

func (pp *PerformancePrediction) PrintPrediction() string {
	return pp.accuracy.PrintFunction()
}
