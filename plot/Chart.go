package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/samuelfneumann/rlsampler/metrics"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette is the seaborn "deep" colour cycle
var Palette = []drawing.Color{
	drawing.ColorFromHex("4C72B0"),
	drawing.ColorFromHex("DD8452"),
	drawing.ColorFromHex("55A868"),
	drawing.ColorFromHex("C44E52"),
	drawing.ColorFromHex("8172B3"),
	drawing.ColorFromHex("937860"),
	drawing.ColorFromHex("DA8BC3"),
	drawing.ColorFromHex("8C8C8C"),
	drawing.ColorFromHex("CCB974"),
	drawing.ColorFromHex("64B5CD"),
}

var (
	gridBackground = drawing.ColorFromHex("EAEAF2")
	gridLine       = drawing.ColorWhite
)

// BandAlpha is the opacity of the standard deviation bands
const BandAlpha uint8 = 64

// Chart renders series as PNG line plots on a darkgrid background. Each
// series with a standard deviation is drawn over a translucent band of
// mean ± std. The x axis is the row index of the log.
type Chart struct {
	Title  string
	XLabel string
	Width  int
	Height int
}

// NewChart returns a Chart with the default size
func NewChart() Chart {
	return Chart{XLabel: "Iteration", Width: 1024, Height: 640}
}

// Render implements the Renderer interface. NaN samples are skipped.
func (c Chart) Render(w io.Writer, series ...metrics.Series) error {
	var lines []chart.Series
	for i, s := range series {
		b := newBand(s, Palette[i%len(Palette)])
		if b.Len() == 0 {
			continue
		}
		lines = append(lines, b)
	}
	if len(lines) == 0 {
		return fmt.Errorf("render: no finite samples to plot")
	}

	grid := chart.Style{StrokeColor: gridLine, StrokeWidth: 1}
	ch := chart.Chart{
		Title:  c.Title,
		Width:  c.Width,
		Height: c.Height,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: gridBackground},
		XAxis: chart.XAxis{
			Name:           c.XLabel,
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		YAxis: chart.YAxis{
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		Series: lines,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// band is a line series drawn over an optional filled band
type band struct {
	name    string
	colour  drawing.Color
	hasBand bool

	xs, ys, upper, lower []float64
}

func newBand(s metrics.Series, colour drawing.Color) band {
	b := band{name: s.Name, colour: colour, hasBand: s.HasBand()}
	for i, y := range s.Values {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		std := 0.0
		if b.hasBand && i < len(s.Std) && !math.IsNaN(s.Std[i]) {
			std = s.Std[i]
		}
		b.xs = append(b.xs, float64(i))
		b.ys = append(b.ys, y)
		b.upper = append(b.upper, y+std)
		b.lower = append(b.lower, y-std)
	}
	return b
}

func (b band) GetName() string {
	return b.name
}

func (b band) GetYAxis() chart.YAxisType {
	return chart.YAxisPrimary
}

func (b band) GetStyle() chart.Style {
	return chart.Style{StrokeColor: b.colour, StrokeWidth: 2}
}

func (b band) Len() int {
	return len(b.xs)
}

// GetBoundedValues makes the axis ranges cover the whole band
func (b band) GetBoundedValues(i int) (x, y1, y2 float64) {
	return b.xs[i], b.upper[i], b.lower[i]
}

func (b band) GetValues(i int) (float64, float64) {
	return b.xs[i], b.ys[i]
}

func (b band) Validate() error {
	if len(b.xs) == 0 {
		return fmt.Errorf("validate: series %q has no samples", b.name)
	}
	return nil
}

func (b band) Render(r chart.Renderer, canvasBox chart.Box, xrange,
	yrange chart.Range, defaults chart.Style) {
	if b.hasBand {
		fill := b.colour.WithAlpha(BandAlpha)
		chart.Draw.BoundedSeries(r, canvasBox, xrange, yrange,
			chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 0},
			b)
	}

	line := chart.ContinuousSeries{XValues: b.xs, YValues: b.ys}
	chart.Draw.LineSeries(r, canvasBox, xrange, yrange,
		b.GetStyle().InheritFrom(defaults), line)
}
