package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DropNaN returns the finite values of xs.
func DropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Unique returns the distinct non-NaN values of xs in ascending order.
func Unique(xs []float64) []float64 {
	seen := map[float64]bool{}
	out := []float64{}
	for _, x := range xs {
		if math.IsNaN(x) || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	sort.Float64s(out)
	return out
}

// MeanStd is the mean and sample standard deviation of the non-NaN values. The
// mean is NaN without values; the deviation is 0 with fewer than two.
func MeanStd(xs []float64) (float64, float64) {
	values := DropNaN(xs)
	switch len(values) {
	case 0:
		return math.NaN(), 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// GroupedMeanStd groups ys by the matching xs and aggregates each group.
type GroupedMeanStd struct {
	X    []float64
	Mean []float64
	Std  []float64
}

func GroupMeanStd(xs []float64, ys []float64) GroupedMeanStd {
	groups := map[float64][]float64{}
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		groups[x] = append(groups[x], ys[i])
	}

	result := GroupedMeanStd{}
	for _, x := range Unique(xs) {
		mean, std := MeanStd(groups[x])
		result.X = append(result.X, x)
		result.Mean = append(result.Mean, mean)
		result.Std = append(result.Std, std)
	}
	return result
}

// Finite keeps the points whose mean is defined.
func (g GroupedMeanStd) Finite() GroupedMeanStd {
	out := GroupedMeanStd{}
	for i := range g.X {
		if math.IsNaN(g.Mean[i]) {
			continue
		}
		out.X = append(out.X, g.X[i])
		out.Mean = append(out.Mean, g.Mean[i])
		out.Std = append(out.Std, g.Std[i])
	}
	return out
}

type BoxStats struct {
	Q1, Median, Q3         float64
	LowWhisker, HighWhisker float64
	Outliers               []float64
	N                      int
}

// Box computes box plot statistics with whiskers at the most extreme values within
// 1.5 IQR of the quartiles.
func Box(xs []float64) (BoxStats, bool) {
	values := DropNaN(xs)
	if len(values) == 0 {
		return BoxStats{}, false
	}
	sort.Float64s(values)

	box := BoxStats{
		Q1:     quantile(0.25, values),
		Median: quantile(0.5, values),
		Q3:     quantile(0.75, values),
		N:      len(values),
	}
	iqr := box.Q3 - box.Q1
	low := box.Q1 - 1.5*iqr
	high := box.Q3 + 1.5*iqr

	box.LowWhisker = box.Q1
	box.HighWhisker = box.Q3
	for _, v := range values {
		if v < low || v > high {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		box.LowWhisker = math.Min(box.LowWhisker, v)
		box.HighWhisker = math.Max(box.HighWhisker, v)
	}
	return box, true
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(p float64, sorted []float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lower := math.Floor(pos)
	frac := pos - lower
	i := int(lower)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

type Histogram struct {
	Dividers []float64
	Counts   []float64
}

// NewHistogram bins the non-NaN values into equal-width bins between their min and
// max; the last bin includes the max.
func NewHistogram(xs []float64, bins int) (Histogram, bool) {
	values := DropNaN(xs)
	if len(values) == 0 || bins <= 0 {
		return Histogram{}, false
	}
	sort.Float64s(values)

	low, high := values[0], values[len(values)-1]
	if low == high {
		low -= 0.5
		high += 0.5
	}
	dividers := floats.Span(make([]float64, bins+1), low, high)
	// stat.Histogram treats the upper divider as exclusive
	upper := dividers[bins]
	dividers[bins] = math.Nextafter(upper, math.Inf(1))

	counts := stat.Histogram(nil, dividers, values, nil)
	dividers[bins] = upper

	return Histogram{Dividers: dividers, Counts: counts}, true
}
