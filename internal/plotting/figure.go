package plotting

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/analysis"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PixelsPerInch converts figure sizes given in inches to pixels.
const PixelsPerInch = 100

var ErrNoData = errors.New("nothing to plot")

type Figure interface {
	Render(w io.Writer) error
}

// Size in inches.
type Size struct {
	Width  float64
	Height float64
}

func (s Size) pixels() (int, int) {
	return int(s.Width * PixelsPerInch), int(s.Height * PixelsPerInch)
}

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func PaletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

var (
	SolidLine   []float64
	DashedLine  = []float64{6, 4}
	DashDotLine = []float64{6, 3, 2, 3}
	DottedLine  = []float64{2, 3}
)

var gridStyle = chart.Style{
	StrokeColor:     drawing.ColorFromHex("b0b0b0").WithAlpha(150),
	StrokeWidth:     1,
	StrokeDashArray: DashedLine,
}

// Line is one curve of a LinePlot. Lower and Upper, when set, are drawn as a faint
// band around it.
type Line struct {
	Name   string
	X      []float64
	Y      []float64
	Lower  []float64
	Upper  []float64
	Color  drawing.Color
	Dash   []float64
	Marker bool
}

type LinePlot struct {
	Title  string
	XLabel string
	YLabel string
	Size   Size
	Lines  []Line
	Grid   bool
}

func (p LinePlot) Render(w io.Writer) error {
	series := []chart.Series{}
	named := []chart.Series{}
	xs, ys := []float64{}, []float64{}

	for _, line := range p.Lines {
		x, y := finitePoints(line.X, line.Y)
		if len(x) == 0 {
			continue
		}
		xs = append(xs, x...)
		ys = append(ys, y...)

		for _, bound := range [][]float64{line.Lower, line.Upper} {
			if bound == nil {
				continue
			}
			bx, by := finitePoints(line.X, bound)
			if len(bx) == 0 {
				continue
			}
			ys = append(ys, by...)
			series = append(series, chart.ContinuousSeries{
				XValues: bx,
				YValues: by,
				Style: chart.Style{
					StrokeColor:     line.Color.WithAlpha(90),
					StrokeWidth:     1,
					StrokeDashArray: DottedLine,
				},
			})
		}

		style := chart.Style{
			StrokeColor:     line.Color,
			StrokeWidth:     2,
			StrokeDashArray: line.Dash,
		}
		if line.Marker {
			style.DotColor = line.Color
			style.DotWidth = 3
		}
		s := chart.ContinuousSeries{Name: line.Name, XValues: x, YValues: y, Style: style}
		series = append(series, s)
		if line.Name != "" {
			named = append(named, s)
		}
	}
	if len(xs) == 0 {
		return ErrNoData
	}

	c := p.chart(series, ys)
	c.XAxis.Range = paddedRange(xs, false)
	return renderWithLegend(c, named, w)
}

func (p LinePlot) chart(series []chart.Series, ys []float64) chart.Chart {
	width, height := p.Size.pixels()
	c := chart.Chart{
		Title:      p.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           p.XLabel,
			ValueFormatter: tickFormatter,
		},
		YAxis: chart.YAxis{
			Name:           p.YLabel,
			Range:          paddedRange(ys, false),
			ValueFormatter: tickFormatter,
		},
		Series: series,
	}
	if p.Grid {
		c.XAxis.GridMajorStyle = gridStyle
		c.YAxis.GridMajorStyle = gridStyle
	}
	return c
}

// ErrorBarPlot draws means with ±std whiskers, joined by a line.
type ErrorBarPlot struct {
	Title  string
	XLabel string
	YLabel string
	Size   Size
	X      []float64
	Mean   []float64
	Std    []float64
}

func (p ErrorBarPlot) Render(w io.Writer) error {
	x, mean := finitePoints(p.X, p.Mean)
	if len(x) == 0 {
		return ErrNoData
	}

	color := PaletteColor(0)
	whisker := chart.Style{StrokeColor: color, StrokeWidth: 1.5}
	capWidth := capHalfWidth(x)

	series := []chart.Series{}
	ys := append([]float64{}, mean...)
	for i := range p.X {
		if math.IsNaN(p.Mean[i]) || math.IsNaN(p.X[i]) {
			continue
		}
		low, high := p.Mean[i]-p.Std[i], p.Mean[i]+p.Std[i]
		ys = append(ys, low, high)
		series = append(series,
			chart.ContinuousSeries{XValues: []float64{p.X[i], p.X[i]}, YValues: []float64{low, high}, Style: whisker},
			chart.ContinuousSeries{XValues: []float64{p.X[i] - capWidth, p.X[i] + capWidth}, YValues: []float64{low, low}, Style: whisker},
			chart.ContinuousSeries{XValues: []float64{p.X[i] - capWidth, p.X[i] + capWidth}, YValues: []float64{high, high}, Style: whisker},
		)
	}
	series = append(series, chart.ContinuousSeries{
		XValues: x,
		YValues: mean,
		Style:   chart.Style{StrokeColor: color, StrokeWidth: 2, DotColor: color, DotWidth: 4},
	})

	c := LinePlot{Title: p.Title, XLabel: p.XLabel, YLabel: p.YLabel, Size: p.Size, Grid: true}.chart(series, ys)
	c.XAxis.Range = paddedRange(append(append([]float64{}, x...), x[0]-capWidth, x[len(x)-1]+capWidth), false)
	return c.Render(chart.PNG, w)
}

// BoxPlot draws one box per category at x positions 1..n.
type BoxPlot struct {
	Title  string
	XLabel string
	YLabel string
	Size   Size
	Labels []string
	Values [][]float64
}

func (p BoxPlot) Render(w io.Writer) error {
	color := PaletteColor(0)
	boxStyle := chart.Style{StrokeColor: color, StrokeWidth: 1.5}
	medianStyle := chart.Style{StrokeColor: PaletteColor(2), StrokeWidth: 2}
	outlierStyle := chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 0, DotColor: drawing.ColorBlack, DotWidth: 3}

	series := []chart.Series{}
	ticks := []chart.Tick{}
	ys := []float64{}
	const halfWidth = 0.25

	for i, values := range p.Values {
		x := float64(i + 1)
		ticks = append(ticks, chart.Tick{Value: x, Label: p.Labels[i]})

		box, ok := analysis.Box(values)
		if !ok {
			continue
		}
		left, right := x-halfWidth, x+halfWidth
		ys = append(ys, box.LowWhisker, box.HighWhisker)
		ys = append(ys, box.Outliers...)

		series = append(series,
			chart.ContinuousSeries{
				XValues: []float64{left, right, right, left, left},
				YValues: []float64{box.Q1, box.Q1, box.Q3, box.Q3, box.Q1},
				Style:   boxStyle,
			},
			chart.ContinuousSeries{XValues: []float64{left, right}, YValues: []float64{box.Median, box.Median}, Style: medianStyle},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{box.Q3, box.HighWhisker}, Style: boxStyle},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{box.Q1, box.LowWhisker}, Style: boxStyle},
			chart.ContinuousSeries{XValues: []float64{x - halfWidth/2, x + halfWidth/2}, YValues: []float64{box.HighWhisker, box.HighWhisker}, Style: boxStyle},
			chart.ContinuousSeries{XValues: []float64{x - halfWidth/2, x + halfWidth/2}, YValues: []float64{box.LowWhisker, box.LowWhisker}, Style: boxStyle},
		)
		if len(box.Outliers) > 0 {
			xs := make([]float64, len(box.Outliers))
			for j := range xs {
				xs[j] = x
			}
			series = append(series, chart.ContinuousSeries{XValues: xs, YValues: box.Outliers, Style: outlierStyle})
		}
	}
	if len(series) == 0 {
		return ErrNoData
	}

	c := LinePlot{Title: p.Title, XLabel: p.XLabel, YLabel: p.YLabel, Size: p.Size}.chart(series, ys)
	c.XAxis.Ticks = ticks
	c.XAxis.Range = &chart.ContinuousRange{Min: 0.5, Max: float64(len(p.Values)) + 0.5}
	return c.Render(chart.PNG, w)
}

type HistogramGroup struct {
	Name   string
	Values []float64
}

// HistogramPlot overlays translucent step histograms, one per group.
type HistogramPlot struct {
	Title  string
	XLabel string
	YLabel string
	Size   Size
	Bins   int
	Groups []HistogramGroup
}

func (p HistogramPlot) Render(w io.Writer) error {
	bins := p.Bins
	if bins <= 0 {
		bins = 10
	}

	series := []chart.Series{}
	named := []chart.Series{}
	xs, ys := []float64{}, []float64{0}
	for i, group := range p.Groups {
		hist, ok := analysis.NewHistogram(group.Values, bins)
		if !ok {
			continue
		}
		x, y := stepOutline(hist.Dividers, hist.Counts)
		xs = append(xs, x...)
		ys = append(ys, y...)

		color := PaletteColor(i)
		s := chart.ContinuousSeries{
			Name:    group.Name,
			XValues: x,
			YValues: y,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 1,
				FillColor:   color.WithAlpha(128),
			},
		}
		series = append(series, s)
		if group.Name != "" {
			named = append(named, s)
		}
	}
	if len(series) == 0 {
		return ErrNoData
	}

	c := LinePlot{Title: p.Title, XLabel: p.XLabel, YLabel: p.YLabel, Size: p.Size, Grid: true}.chart(series, ys)
	c.XAxis.Range = paddedRange(xs, false)
	// fills reach down to the axis, which must be at zero
	yRange := paddedRange(ys, true)
	yRange.Min = 0
	c.YAxis.Range = yRange
	return renderWithLegend(c, named, w)
}

// stepOutline turns bin edges and counts into a closed bar outline starting and
// ending on the baseline.
func stepOutline(dividers, counts []float64) ([]float64, []float64) {
	xs := []float64{dividers[0]}
	ys := []float64{0}
	for i, count := range counts {
		xs = append(xs, dividers[i], dividers[i+1])
		ys = append(ys, count, count)
	}
	xs = append(xs, dividers[len(dividers)-1])
	ys = append(ys, 0)
	return xs, ys
}

type sideBySide struct {
	panels []Figure
}

// SideBySide places figures next to each other on one image.
func SideBySide(panels ...Figure) Figure {
	return sideBySide{panels: panels}
}

func (s sideBySide) Render(w io.Writer) error {
	images := []image.Image{}
	width, height := 0, 0
	for _, panel := range s.panels {
		var buf bytes.Buffer
		if err := panel.Render(&buf); err != nil {
			if errors.Is(err, ErrNoData) {
				continue
			}
			return err
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("cannot decode panel: %w", err)
		}
		images = append(images, img)
		width += img.Bounds().Dx()
		height = max(height, img.Bounds().Dy())
	}
	if len(images) == 0 {
		return ErrNoData
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	x := 0
	for _, img := range images {
		bounds := img.Bounds()
		draw.Draw(canvas, image.Rect(x, 0, x+bounds.Dx(), bounds.Dy()), img, bounds.Min, draw.Over)
		x += bounds.Dx()
	}
	return png.Encode(w, canvas)
}

// SavePNG renders a figure into fileName, creating its directory.
func SavePNG(fileName string, figure Figure) error {
	if err := common.EnsureDir(filepath.Dir(fileName)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := figure.Render(&buf); err != nil {
		return err
	}
	return os.WriteFile(fileName, buf.Bytes(), 0644)
}

func renderWithLegend(c chart.Chart, named []chart.Series, w io.Writer) error {
	if len(named) > 0 {
		legend := c
		legend.Series = named
		c.Elements = []chart.Renderable{chart.Legend(&legend)}
	}
	return c.Render(chart.PNG, w)
}

func finitePoints(xs, ys []float64) ([]float64, []float64) {
	outX, outY := []float64{}, []float64{}
	for i := range xs {
		if i >= len(ys) || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		outX = append(outX, xs[i])
		outY = append(outY, ys[i])
	}
	return outX, outY
}

// paddedRange spans the finite values with a 5% margin and never collapses to a
// single value.
func paddedRange(values []float64, fromZero bool) *chart.ContinuousRange {
	low, high := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		low = math.Min(low, v)
		high = math.Max(high, v)
	}
	if math.IsInf(low, 1) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if fromZero {
		low = math.Min(low, 0)
	}
	if low == high {
		delta := math.Max(math.Abs(low)*0.1, 0.5)
		return &chart.ContinuousRange{Min: low - delta, Max: high + delta}
	}
	margin := (high - low) * 0.05
	return &chart.ContinuousRange{Min: low - margin, Max: high + margin}
}

func capHalfWidth(xs []float64) float64 {
	low, high := xs[0], xs[0]
	for _, x := range xs {
		low = math.Min(low, x)
		high = math.Max(high, x)
	}
	if high == low {
		return 0.1
	}
	return (high - low) * 0.015
}

func tickFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
