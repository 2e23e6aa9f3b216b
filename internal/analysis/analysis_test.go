package analysis

import (
	"math"
	"strconv"
	"testing"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{0.5, 0.7, math.NaN(), 0.9})
	assert.InDelta(t, 0.7, mean, 1e-9)
	assert.InDelta(t, 0.2, std, 1e-9)

	mean, std = MeanStd([]float64{0.4})
	assert.Equal(t, 0.4, mean)
	assert.Equal(t, 0.0, std)

	mean, std = MeanStd([]float64{math.NaN()})
	assert.True(t, math.IsNaN(mean))
	assert.Equal(t, 0.0, std)
}

func TestGroupMeanStd(t *testing.T) {
	xs := []float64{2, 1, 2, 1, math.NaN()}
	ys := []float64{0.6, 0.1, 0.8, 0.3, 5}

	grouped := GroupMeanStd(xs, ys)
	assert.Equal(t, []float64{1, 2}, grouped.X)
	assert.InDelta(t, 0.2, grouped.Mean[0], 1e-9)
	assert.InDelta(t, 0.7, grouped.Mean[1], 1e-9)
	assert.InDelta(t, math.Sqrt(0.02), grouped.Std[1], 1e-9)
}

func TestGroupMeanStdFinite(t *testing.T) {
	grouped := GroupMeanStd([]float64{1, 2}, []float64{math.NaN(), 0.5}).Finite()
	assert.Equal(t, []float64{2}, grouped.X)
	assert.Equal(t, []float64{0.5}, grouped.Mean)
}

func TestBox(t *testing.T) {
	box, ok := Box([]float64{1, 2, 3, 4, 5, 6, 7, 8, 100})
	require.True(t, ok)
	assert.Equal(t, 3.0, box.Q1)
	assert.Equal(t, 5.0, box.Median)
	assert.Equal(t, 7.0, box.Q3)
	assert.Equal(t, 1.0, box.LowWhisker)
	assert.Equal(t, 8.0, box.HighWhisker)
	assert.Equal(t, []float64{100}, box.Outliers)
	assert.Equal(t, 9, box.N)

	_, ok = Box([]float64{math.NaN()})
	assert.False(t, ok)
}

func TestNewHistogram(t *testing.T) {
	hist, ok := NewHistogram([]float64{0, 0.1, 0.5, 1.0, 1.0}, 2)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0.5, 1.0}, hist.Dividers)
	assert.Equal(t, []float64{2, 3}, hist.Counts)

	hist, ok = NewHistogram([]float64{0.3, 0.3}, 10)
	require.True(t, ok)
	assert.Len(t, hist.Counts, 10)
	total := 0.0
	for _, c := range hist.Counts {
		total += c
	}
	assert.Equal(t, 2.0, total)
}

func TestHasConverged(t *testing.T) {
	flat := []float64{0.1, 0.5, 0.8, 0.81, 0.82, 0.82, 0.83, 0.83, 0.84, 0.84}
	assert.True(t, HasConverged(flat, DefaultConvergenceThreshold, DefaultConvergencePatience, DefaultConvergenceWindow))

	jumping := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.9}
	assert.False(t, HasConverged(jumping, DefaultConvergenceThreshold, DefaultConvergencePatience, DefaultConvergenceWindow))

	assert.False(t, HasConverged([]float64{0.5, 0.5}, DefaultConvergenceThreshold, DefaultConvergencePatience, DefaultConvergenceWindow))
}

func TestLogarithmicRegression(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 0.2 + 0.3*math.Log(x+1)
	}

	regression, err := NewLogarithmicRegression(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 0.2+0.3*math.Log(11), regression.PredictY(10), 1e-9)
	assert.InDelta(t, 10, regression.PredictX(0.2+0.3*math.Log(11)), 1e-6)
	assert.Equal(t, "f(x) = 0.20 + 0.30 * ln(x+1)", regression.PrintFunction())

	_, err = NewLogarithmicRegression([]float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestPerformancePrediction(t *testing.T) {
	rounds := []float64{0, 1, 2, 3, 4}
	accuracies := []float64{0.05, 0.2 + 0.3*math.Log(2), 0.2 + 0.3*math.Log(3), math.NaN(), 0.2 + 0.3*math.Log(5)}

	prediction, err := NewPerformancePrediction(rounds, accuracies)
	require.NoError(t, err)
	assert.InDelta(t, 0.2+0.3*math.Log(8), prediction.PredictAccuracy(7), 1e-9)
	assert.Equal(t, 7, prediction.PredictRoundForAccuracy(0.2+0.3*math.Log(7.5)))

	_, err = NewPerformancePrediction([]float64{0, 1}, []float64{0.1, 0.2})
	assert.Error(t, err)
}

func TestParseCounts(t *testing.T) {
	counts, err := ParseCounts("{0: 1200, 3: 980}")
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{0: 1200, 3: 980}, counts)

	counts, err = ParseCounts("{}")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestClassSkew(t *testing.T) {
	skews := ClassSkew(map[int]map[int]int64{
		1: {0: 100, 1: 100},
		0: {0: 100, 1: 100},
	})
	require.Len(t, skews, 2)
	assert.Equal(t, 0, skews[0].ClientId)
	assert.InDelta(t, 0, skews[0].Divergence, 1e-9)

	skews = ClassSkew(map[int]map[int]int64{
		0: {0: 100},
		1: {1: 100},
		2: {0: 50, 1: 50},
	})
	require.Len(t, skews, 3)
	assert.Greater(t, skews[0].Divergence, skews[2].Divergence)
	assert.InDelta(t, skews[0].Divergence, skews[1].Divergence, 1e-9)
	assert.Equal(t, int64(100), skews[2].Samples)
	assert.Equal(t, 2, skews[2].Classes)
}

func TestBuildReport(t *testing.T) {
	rows := [][]string{}
	for _, seed := range []string{"0", "1"} {
		for round := 10; round >= 1; round-- {
			accuracy := 0.2 + 0.3*math.Log(float64(round)+1)
			if seed == "1" {
				accuracy = 0.1
			}
			rows = append(rows, []string{"4", seed, strconv.Itoa(round), strconv.FormatFloat(accuracy, 'f', -1, 64), ""})
		}
	}
	rounds := results.NewTable([]string{"num_clients", "seed", "round", "accuracy", "loss"}, rows)
	classes := results.NewTable([]string{"num_clients", "seed", "client_id", "classes", "counts"}, [][]string{
		{"4", "0", "0", "[0]", "{0: 100}"},
		{"4", "0", "1", "[1]", "{1: 100}"},
		{"4", "2", "0", "[0, 1]", "{0: 10, 1: 10}"},
	})

	reports, err := BuildReport(rounds, classes, 0.2+0.3*math.Log(12.5))
	require.NoError(t, err)
	require.Len(t, reports, 3)

	first := reports[0]
	assert.Equal(t, "num_clients=4 | seed=0", first.Label)
	assert.Equal(t, 10, first.Rounds)
	assert.InDelta(t, 0.2+0.3*math.Log(11), first.FinalAccuracy, 1e-9)
	assert.True(t, first.Converged)
	assert.Equal(t, "f(x) = 0.20 + 0.30 * ln(x+1)", first.Function)
	assert.Equal(t, 12, first.TargetRound)
	require.Len(t, first.Skew, 2)

	flat := reports[1]
	assert.Equal(t, 0.1, flat.FinalAccuracy)
	assert.True(t, flat.Converged)
	assert.Nil(t, flat.Skew)

	classOnly := reports[2]
	assert.Equal(t, "num_clients=4 | seed=2", classOnly.Label)
	assert.True(t, math.IsNaN(classOnly.FinalAccuracy))
	assert.Equal(t, -1, classOnly.TargetRound)
	require.Len(t, classOnly.Skew, 1)
}
