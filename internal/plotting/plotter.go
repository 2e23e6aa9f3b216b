package plotting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/analysis"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/results"
	"github.com/hashicorp/go-hclog"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Plotter renders the chart families from sweep result files into outputDir.
type Plotter struct {
	logger    hclog.Logger
	outputDir string
}

func NewPlotter(logger hclog.Logger, outputDir string) *Plotter {
	if outputDir == "" {
		outputDir = "."
	}
	return &Plotter{
		logger:    logger.Named("plot"),
		outputDir: outputDir,
	}
}

func (p *Plotter) save(written []string, name string, figure Figure) ([]string, error) {
	fileName := filepath.Join(p.outputDir, name)
	if err := SavePNG(fileName, figure); err != nil {
		if errors.Is(err, ErrNoData) {
			p.logger.Warn(fmt.Sprintf("Nothing to plot for %s", name))
			return written, nil
		}
		return written, fmt.Errorf("cannot save %s: %w", fileName, err)
	}
	p.logger.Info(fmt.Sprintf("Saved: %s", fileName))
	return append(written, fileName), nil
}

// Summary plots final metrics against the number of clients and the raw per-round
// curves of a clients sweep.
func (p *Plotter) Summary(summaryFile, roundsFile string) ([]string, error) {
	written := []string{}

	if _, err := os.Stat(summaryFile); err != nil {
		p.logger.Error(fmt.Sprintf("File not found: %s", summaryFile))
	} else {
		summary, err := results.ReadTable(summaryFile)
		if err != nil {
			return written, err
		}
		clients, err := summary.Floats(common.DIM_NUM_CLIENTS)
		if err != nil {
			return written, err
		}
		accuracy, err := summary.Floats("final_accuracy")
		if err != nil {
			return written, err
		}
		loss, err := summary.Floats("final_loss")
		if err != nil {
			return written, err
		}

		size := Size{Width: 5, Height: 5}
		figure := SideBySide(
			LinePlot{
				Title: "Final Accuracy vs Number of Clients", XLabel: "Number of Clients", YLabel: "Accuracy",
				Size: size, Grid: true,
				Lines: []Line{{Name: "Final Accuracy", X: clients, Y: accuracy, Color: PaletteColor(0), Marker: true}},
			},
			LinePlot{
				Title: "Final Loss vs Number of Clients", XLabel: "Number of Clients", YLabel: "Loss",
				Size: size, Grid: true,
				Lines: []Line{{Name: "Final Loss", X: clients, Y: loss, Color: PaletteColor(1), Marker: true}},
			},
		)
		if written, err = p.save(written, "plot_summary_results.png", figure); err != nil {
			return written, err
		}
	}

	if _, err := os.Stat(roundsFile); err != nil {
		p.logger.Warn(fmt.Sprintf("Skipping round plots, file not found: %s", roundsFile))
		return written, nil
	}
	rounds, err := results.ReadTable(roundsFile)
	if err != nil {
		return written, err
	}
	groups, err := groupBy(rounds, common.DIM_NUM_CLIENTS)
	if err != nil {
		return written, err
	}

	accuracyLines, lossLines := []Line{}, []Line{}
	for i, g := range groups {
		x, _ := g.table.Floats("round")
		accuracy, err := g.table.Floats("accuracy")
		if err != nil {
			return written, err
		}
		loss, err := g.table.Floats("loss")
		if err != nil {
			return written, err
		}
		name := fmt.Sprintf("%s clients", formatValue(g.values[0]))
		accuracyLines = append(accuracyLines, Line{Name: name, X: x, Y: accuracy, Color: PaletteColor(i)})
		lossLines = append(lossLines, Line{Name: name, X: x, Y: loss, Color: PaletteColor(i)})
	}

	size := Size{Width: 6, Height: 5}
	figure := SideBySide(
		LinePlot{Title: "Accuracy over Rounds", XLabel: "Round", YLabel: "Accuracy", Size: size, Grid: true, Lines: accuracyLines},
		LinePlot{Title: "Loss over Rounds", XLabel: "Round", YLabel: "Loss", Size: size, Grid: true, Lines: lossLines},
	)
	return p.save(written, "plot_round_results.png", figure)
}

// Participation compares fractions of participating clients across seeds.
func (p *Plotter) Participation(roundsFile string) ([]string, error) {
	data, err := results.ReadTable(roundsFile)
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("Data loaded: %d rows", data.Len()))

	groups, err := groupBy(data, common.DIM_NUM_CLIENTS, common.DIM_FRACTION_FIT)
	if err != nil {
		return nil, err
	}
	written, err := p.meanStdPlots(groups, "Clients | Participation", func(g group, i int) (string, lineStyle) {
		return fmt.Sprintf("%s clients | fraction=%s", formatValue(g.values[0]), formatFloatValue(g.values[1])),
			styleFor(fractionStyles, g.values[1], i)
	})
	if err != nil {
		return written, err
	}

	finalRound, finalGroups, err := finalRoundGroups(data, common.DIM_FRACTION_FIT, "accuracy")
	if err != nil {
		return written, err
	}
	labels, values, histograms, err := boxAndHistogram(finalGroups, "accuracy", formatFloatValue, func(v float64) string {
		return fmt.Sprintf("fraction=%s", formatFloatValue(v))
	})
	if err != nil {
		return written, err
	}

	written, err = p.save(written, "boxplot_final_accuracy_per_fraction.png", BoxPlot{
		Title:  fmt.Sprintf("Final Accuracy per Participation Fraction (round=%d)", finalRound),
		XLabel: "Participation Fraction (fraction_fit)", YLabel: "Final Accuracy",
		Size: Size{Width: 8, Height: 5}, Labels: labels, Values: values,
	})
	if err != nil {
		return written, err
	}
	return p.save(written, "histogram_final_accuracy_per_fraction.png", HistogramPlot{
		Title:  "Histogram of Final Accuracy per Participation Fraction",
		XLabel: "Final Accuracy", YLabel: "Frequency",
		Size: Size{Width: 10, Height: 6}, Bins: 10, Groups: histograms,
	})
}

// Seeds summarizes a client sweep repeated over seeds: spread of the final
// accuracy and convergence per client count.
func (p *Plotter) Seeds(summaryFile, roundsFile string) ([]string, error) {
	summary, err := results.ReadTable(summaryFile)
	if err != nil {
		return nil, err
	}
	rounds, err := results.ReadTable(roundsFile)
	if err != nil {
		return nil, err
	}
	summary, err = statusFilter(summary, common.STATUS_OK)
	if err != nil {
		return nil, err
	}

	byClients, err := groupBy(summary, common.DIM_NUM_CLIENTS)
	if err != nil {
		return nil, err
	}
	labels, values, histograms, err := boxAndHistogram(byClients, "final_accuracy", formatValue, func(v float64) string {
		return fmt.Sprintf("%s clients", formatValue(v))
	})
	if err != nil {
		return nil, err
	}

	written := []string{}
	written, err = p.save(written, "boxplot_final_accuracy.png", BoxPlot{
		Title:  "Final Accuracy Distribution per Client Count",
		XLabel: "Number of Clients", YLabel: "Final Accuracy",
		Size: Size{Width: 7, Height: 5}, Labels: labels, Values: values,
	})
	if err != nil {
		return written, err
	}

	errorBars := ErrorBarPlot{
		Title:  "Mean ± Std of Final Accuracy across Seeds",
		XLabel: "Number of Clients", YLabel: "Final Accuracy",
		Size: Size{Width: 7, Height: 5},
	}
	for i, g := range byClients {
		mean, std := analysis.MeanStd(values[i])
		errorBars.X = append(errorBars.X, g.values[0])
		errorBars.Mean = append(errorBars.Mean, mean)
		errorBars.Std = append(errorBars.Std, std)
	}
	if written, err = p.save(written, "errorbar_final_accuracy.png", errorBars); err != nil {
		return written, err
	}

	roundGroups, err := groupBy(rounds, common.DIM_NUM_CLIENTS)
	if err != nil {
		return written, err
	}
	lines := []Line{}
	for i, g := range roundGroups {
		grouped, err := meanStdByRound(g.table, "accuracy")
		if err != nil {
			return written, err
		}
		name := fmt.Sprintf("%s clients", formatValue(g.values[0]))
		lines = append(lines, bandLine(name, grouped, lineStyle{color: PaletteColor(i)}))
		if fit := p.fittedLine(name, grouped, PaletteColor(i)); fit != nil {
			lines = append(lines, *fit)
		}
	}
	written, err = p.save(written, "convergence_mean_std.png", LinePlot{
		Title:  "Convergence Curves (mean ± std across seeds)",
		XLabel: "Round", YLabel: "Central Accuracy",
		Size: Size{Width: 8, Height: 6}, Grid: true, Lines: lines,
	})
	if err != nil {
		return written, err
	}

	return p.save(written, "histogram_final_accuracy.png", HistogramPlot{
		Title:  "Histogram of Final Accuracy (per Client Count)",
		XLabel: "Final Accuracy", YLabel: "Frequency",
		Size: Size{Width: 10, Height: 6}, Bins: 10, Groups: histograms,
	})
}

// NonIid compares rounds files recorded with different Dirichlet alphas. A file
// that already carries an alpha column keeps it.
func (p *Plotter) NonIid(inputs []AlphaInput) ([]string, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input files")
	}

	tables := []*results.Table{}
	for _, input := range inputs {
		table, err := results.ReadTable(input.File)
		if err != nil {
			return nil, err
		}
		if !table.Has(common.DIM_ALPHA) {
			table = table.WithColumn(common.DIM_ALPHA, common.FormatFloat(input.Alpha))
		}
		tables = append(tables, table)
	}
	data := results.Concat(tables...)

	groups, err := groupBy(data, common.DIM_ALPHA, common.DIM_NUM_CLIENTS)
	if err != nil {
		return nil, err
	}
	written, err := p.meanStdPlots(groups, "Legend", func(g group, i int) (string, lineStyle) {
		return fmt.Sprintf("α=%s, %s clients", formatFloatValue(g.values[0]), formatValue(g.values[1])),
			styleFor(alphaStyles, g.values[0], i)
	})
	if err != nil {
		return written, err
	}

	finalRound, finalGroups, err := finalRoundGroups(data, common.DIM_ALPHA, "accuracy")
	if err != nil {
		return written, err
	}
	labels, values, histograms, err := boxAndHistogram(finalGroups, "accuracy", formatFloatValue, func(v float64) string {
		return fmt.Sprintf("α=%s", formatFloatValue(v))
	})
	if err != nil {
		return written, err
	}

	written, err = p.save(written, "boxplot_final_accuracy_per_alpha.png", BoxPlot{
		Title:  fmt.Sprintf("Final Accuracy Distribution per Dirichlet α (round=%d)", finalRound),
		XLabel: "Dirichlet α", YLabel: "Accuracy",
		Size: Size{Width: 8, Height: 5}, Labels: labels, Values: values,
	})
	if err != nil {
		return written, err
	}
	return p.save(written, "histogram_final_accuracy_per_alpha.png", HistogramPlot{
		Title:  "Histogram of Final Accuracy (per Dirichlet α)",
		XLabel: "Final Accuracy", YLabel: "Frequency",
		Size: Size{Width: 10, Height: 6}, Bins: 10, Groups: histograms,
	})
}

// meanStdPlots draws accuracy and loss against rounds, one mean ± std line per group.
func (p *Plotter) meanStdPlots(groups []group, legendTitle string, describe func(group, int) (string, lineStyle)) ([]string, error) {
	written := []string{}
	for _, metric := range []struct {
		column string
		label  string
		file   string
	}{
		{"accuracy", "Accuracy", "accuracy_vs_rounds_mean_std.png"},
		{"loss", "Loss", "loss_vs_rounds_mean_std.png"},
	} {
		lines := []Line{}
		for i, g := range groups {
			grouped, err := meanStdByRound(g.table, metric.column)
			if err != nil {
				return written, err
			}
			name, style := describe(g, i)
			lines = append(lines, bandLine(name, grouped, style))
		}
		p.logger.Debug(fmt.Sprintf("%s: %d lines (%s)", metric.file, len(lines), legendTitle))

		var err error
		written, err = p.save(written, metric.file, LinePlot{
			Title:  fmt.Sprintf("%s vs Rounds (mean ± std across seeds)", metric.label),
			XLabel: "Round", YLabel: metric.label,
			Size: Size{Width: 10, Height: 6}, Grid: true, Lines: lines,
		})
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// fittedLine is the logarithmic fit of a mean accuracy curve, nil if it cannot be fitted.
func (p *Plotter) fittedLine(name string, grouped analysis.GroupedMeanStd, color drawing.Color) *Line {
	prediction, err := analysis.NewPerformancePrediction(grouped.X, grouped.Mean)
	if err != nil {
		p.logger.Debug(fmt.Sprintf("No fit for %s: %s", name, err.Error()))
		return nil
	}

	ys := make([]float64, len(grouped.X))
	for i, round := range grouped.X {
		ys[i] = prediction.PredictAccuracy(int(round))
	}
	return &Line{
		Name:  fmt.Sprintf("%s (%s)", name, prediction.PrintPrediction()),
		X:     grouped.X,
		Y:     ys,
		Color: color,
		Dash:  DashedLine,
	}
}
