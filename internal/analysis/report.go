package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
)

var dimensionColumns = []string{common.DIM_NUM_CLIENTS, common.DIM_FRACTION_FIT, common.DIM_ALPHA, common.DIM_SEED}

// CombinationReport condenses the rounds of one parameter combination.
type CombinationReport struct {
	Label         string
	Rounds        int
	FinalAccuracy float64
	Converged     bool
	Function      string
	TargetRound   int
	Skew          []ClientSkew
}

type rowGroup struct {
	label string
	rows  []int
}

// BuildReport evaluates every combination of a rounds table: its last accuracy,
// whether it converged, the fitted accuracy curve and the round expected to reach
// targetAccuracy (-1 if unknown). With a classes table, each combination also gets
// the label skew of its clients.
func BuildReport(rounds *results.Table, classes *results.Table, targetAccuracy float64) ([]CombinationReport, error) {
	reports := []CombinationReport{}
	index := map[string]int{}

	if rounds != nil {
		roundValues, err := rounds.Floats("round")
		if err != nil {
			return nil, err
		}
		accuracies, err := rounds.Floats("accuracy")
		if err != nil {
			return nil, err
		}

		for _, g := range groupRows(rounds) {
			xs := make([]float64, len(g.rows))
			ys := make([]float64, len(g.rows))
			for i, row := range g.rows {
				xs[i] = roundValues[row]
				ys[i] = accuracies[row]
			}
			index[g.label] = len(reports)
			reports = append(reports, evaluateCurve(g.label, xs, ys, targetAccuracy))
		}
	}

	if classes != nil {
		if !classes.Has("client_id") || !classes.Has("counts") {
			return nil, fmt.Errorf("classes table needs client_id and counts columns")
		}
		for _, g := range groupRows(classes) {
			clientCounts := map[int]map[int]int64{}
			for _, row := range g.rows {
				idCell, _ := classes.String(row, "client_id")
				countsCell, _ := classes.String(row, "counts")
				clientId, err := strconv.Atoi(strings.TrimSpace(idCell))
				if err != nil {
					return nil, fmt.Errorf("invalid client_id %q: %w", idCell, err)
				}
				counts, err := ParseCounts(countsCell)
				if err != nil {
					return nil, err
				}
				clientCounts[clientId] = counts
			}

			skew := ClassSkew(clientCounts)
			if i, found := index[g.label]; found {
				reports[i].Skew = skew
				continue
			}
			reports = append(reports, CombinationReport{
				Label:         g.label,
				FinalAccuracy: math.NaN(),
				TargetRound:   -1,
				Skew:          skew,
			})
		}
	}

	return reports, nil
}

func evaluateCurve(label string, rounds []float64, accuracies []float64, targetAccuracy float64) CombinationReport {
	order := make([]int, len(rounds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rounds[order[i]] < rounds[order[j]]
	})

	sortedRounds := make([]float64, 0, len(order))
	sortedAccuracies := make([]float64, 0, len(order))
	for _, i := range order {
		sortedRounds = append(sortedRounds, rounds[i])
		sortedAccuracies = append(sortedAccuracies, accuracies[i])
	}

	report := CombinationReport{
		Label:         label,
		Rounds:        len(Unique(sortedRounds)),
		FinalAccuracy: math.NaN(),
		TargetRound:   -1,
	}
	for i := len(sortedAccuracies) - 1; i >= 0; i-- {
		if !math.IsNaN(sortedAccuracies[i]) {
			report.FinalAccuracy = sortedAccuracies[i]
			break
		}
	}
	report.Converged = HasConverged(sortedAccuracies, DefaultConvergenceThreshold, DefaultConvergencePatience, DefaultConvergenceWindow)

	prediction, err := NewPerformancePrediction(sortedRounds, sortedAccuracies)
	if err == nil {
		report.Function = prediction.PrintPrediction()
		report.TargetRound = prediction.PredictRoundForAccuracy(targetAccuracy)
	}
	return report
}

// groupRows splits the rows of a table by the dimension columns it has, in order
// of first appearance.
func groupRows(t *results.Table) []rowGroup {
	columns := []string{}
	for _, column := range dimensionColumns {
		if t.Has(column) {
			columns = append(columns, column)
		}
	}

	groups := []rowGroup{}
	index := map[string]int{}
	for row := 0; row < t.Len(); row++ {
		parts := make([]string, len(columns))
		for i, column := range columns {
			cell, _ := t.String(row, column)
			parts[i] = fmt.Sprintf("%s=%s", column, strings.TrimSpace(cell))
		}
		label := strings.Join(parts, " | ")

		i, found := index[label]
		if !found {
			i = len(groups)
			index[label] = i
			groups = append(groups, rowGroup{label: label})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}
