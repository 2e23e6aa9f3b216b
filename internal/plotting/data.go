package plotting

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/analysis"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
)

// group is the subset of a table sharing one value per grouping column.
type group struct {
	values []float64
	table  *results.Table
}

// groupBy splits a table by the sorted unique values of the columns, the first
// column varying slowest. Empty combinations are left out.
func groupBy(t *results.Table, columns ...string) ([]group, error) {
	if len(columns) == 0 {
		return []group{{table: t}}, nil
	}

	values, err := t.Floats(columns[0])
	if err != nil {
		return nil, err
	}

	groups := []group{}
	for _, value := range analysis.Unique(values) {
		subset := t.Filter(func(row int) bool {
			return values[row] == value
		})
		inner, err := groupBy(subset, columns[1:]...)
		if err != nil {
			return nil, err
		}
		for _, g := range inner {
			if g.table.Len() == 0 {
				continue
			}
			groups = append(groups, group{
				values: append([]float64{value}, g.values...),
				table:  g.table,
			})
		}
	}
	return groups, nil
}

// meanStdByRound aggregates a metric over all rows of the same round.
func meanStdByRound(t *results.Table, metric string) (analysis.GroupedMeanStd, error) {
	rounds, err := t.Floats("round")
	if err != nil {
		return analysis.GroupedMeanStd{}, err
	}
	values, err := t.Floats(metric)
	if err != nil {
		return analysis.GroupedMeanStd{}, err
	}
	return analysis.GroupMeanStd(rounds, values).Finite(), nil
}

func bandLine(name string, grouped analysis.GroupedMeanStd, style lineStyle) Line {
	lower := make([]float64, len(grouped.X))
	upper := make([]float64, len(grouped.X))
	for i := range grouped.X {
		lower[i] = grouped.Mean[i] - grouped.Std[i]
		upper[i] = grouped.Mean[i] + grouped.Std[i]
	}
	return Line{
		Name:   name,
		X:      grouped.X,
		Y:      grouped.Mean,
		Lower:  lower,
		Upper:  upper,
		Color:  style.color,
		Dash:   style.dash,
		Marker: style.marker,
	}
}

// finalRoundGroups collects the metric at the last round of the table, split by
// groupColumn. It also returns that round.
func finalRoundGroups(t *results.Table, groupColumn string, metric string) (int, []group, error) {
	rounds, err := t.Floats("round")
	if err != nil {
		return 0, nil, err
	}
	finalRound := math.Inf(-1)
	for _, round := range analysis.DropNaN(rounds) {
		finalRound = math.Max(finalRound, round)
	}
	if math.IsInf(finalRound, -1) {
		return 0, nil, ErrNoData
	}

	final := t.Filter(func(row int) bool {
		return rounds[row] == finalRound
	})
	if !final.Has(metric) {
		return 0, nil, fmt.Errorf("missing column %q", metric)
	}
	groups, err := groupBy(final, groupColumn)
	return int(finalRound), groups, err
}

func boxAndHistogram(groups []group, metric string, tick func(float64) string, label func(float64) string) ([]string, [][]float64, []HistogramGroup, error) {
	labels := []string{}
	values := [][]float64{}
	histograms := []HistogramGroup{}
	for _, g := range groups {
		v, err := g.table.Floats(metric)
		if err != nil {
			return nil, nil, nil, err
		}
		labels = append(labels, tick(g.values[0]))
		values = append(values, v)
		histograms = append(histograms, HistogramGroup{Name: label(g.values[0]), Values: v})
	}
	return labels, values, histograms, nil
}

func statusFilter(t *results.Table, status string) (*results.Table, error) {
	if !t.Has("status") {
		return nil, fmt.Errorf("missing column %q", "status")
	}
	return t.Filter(func(row int) bool {
		s, _ := t.String(row, "status")
		return s == status
	}), nil
}

// AlphaInput is a rounds file recorded with a given Dirichlet alpha.
type AlphaInput struct {
	Alpha float64
	File  string
}

// DefaultAlphaInputs are the rounds files of the Dirichlet seed sweeps, one per alpha.
var DefaultAlphaInputs = []string{
	"0.1=results_clients_seeds_rounds_0.1.csv",
	"1.0=results_clients_seeds_rounds_1.0.csv",
	"10.0=results_clients_seeds_rounds_10.0.csv",
}

// ParseAlphaInputs reads "alpha=file" arguments.
func ParseAlphaInputs(args []string) ([]AlphaInput, error) {
	inputs := []AlphaInput{}
	for _, arg := range args {
		alpha, file, found := strings.Cut(arg, "=")
		if !found || file == "" {
			return nil, fmt.Errorf("expected alpha=file, got %q", arg)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(alpha), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid alpha in %q: %w", arg, err)
		}
		inputs = append(inputs, AlphaInput{Alpha: value, File: file})
	}
	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].Alpha < inputs[j].Alpha
	})
	return inputs, nil
}
