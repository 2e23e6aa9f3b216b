package plotting

import (
	"strconv"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type lineStyle struct {
	color  drawing.Color
	dash   []float64
	marker bool
}

type dashStyle struct {
	dash   []float64
	marker bool
}

var fractionStyles = map[float64]dashStyle{
	0.2: {dash: SolidLine, marker: true},
	0.5: {dash: DashedLine, marker: true},
	0.8: {dash: DashDotLine, marker: true},
	1.0: {dash: DottedLine, marker: true},
}

var alphaStyles = map[float64]dashStyle{
	0.1:  {dash: SolidLine, marker: true},
	1.0:  {dash: DashedLine, marker: true},
	10.0: {dash: DashDotLine, marker: true},
}

// styleFor colors the i-th line and dashes it by the key, plain for unknown keys.
func styleFor(styles map[float64]dashStyle, key float64, i int) lineStyle {
	style := styles[key]
	return lineStyle{color: PaletteColor(i), dash: style.dash, marker: style.marker}
}

// formatValue prints a grouping value: integers without a fraction, floats the
// way they appear in the CSV files.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return common.FormatFloat(v)
}

func formatFloatValue(v float64) string {
	return common.FormatFloat(v)
}
