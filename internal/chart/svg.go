package chart

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// SVGRenderer draws SVG charts with go-chart for the web front end.
type SVGRenderer struct {
	Width, Height int
}

func (r *SVGRenderer) Format() string { return "svg" }

func (r *SVGRenderer) Render(w io.Writer, spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	var err error
	if spec.Kind == Bar {
		err = r.bar(w, spec)
	} else {
		err = r.line(w, spec)
	}
	if err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

func valueFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return FormatValue(f)
	}
	return fmt.Sprintf("%v", v)
}

// yRange always spans zero and never collapses to a single value.
func yRange(vs []float64) *gochart.ContinuousRange {
	lo, hi := bounds(vs)
	lo = math.Min(0, lo)
	hi = math.Max(0, hi)
	if hi == lo {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func (r *SVGRenderer) bar(w io.Writer, spec Spec) error {
	bars := make([]gochart.Value, len(spec.Values))
	for i, v := range spec.Values {
		bars[i] = gochart.Value{
			Label: spec.Labels[i],
			Value: v,
			Style: gochart.Style{
				FillColor:   drawing.ColorFromHex("87ceeb"),
				StrokeColor: drawing.ColorFromHex("4682b4"),
				StrokeWidth: 1,
			},
		}
	}
	barWidth := (r.Width - 120) / (len(bars) * 2)
	if barWidth < 4 {
		barWidth = 4
	}
	if barWidth > 60 {
		barWidth = 60
	}
	bc := gochart.BarChart{
		Title:      spec.Title,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 20}},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		YAxis: gochart.YAxis{
			Name:           spec.YLabel,
			Range:          yRange(spec.Values),
			ValueFormatter: valueFormatter,
		},
		Bars: bars,
	}
	if len(bars) > 5 {
		bc.XAxis = gochart.Style{TextRotationDegrees: 45}
	}
	return bc.Render(gochart.SVG, w)
}

func (r *SVGRenderer) line(w io.Writer, spec Spec) error {
	n := len(spec.Values)
	xs := make([]float64, n)
	// go-chart takes the x range from the ticks; the blank edge ticks keep
	// it from collapsing when there is a single point.
	ticks := make([]gochart.Tick, 0, n+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i := range spec.Values {
		xs[i] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: spec.Labels[i]})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(n) - 0.5})
	ch := gochart.Chart{
		Title:      spec.Title,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 20}},
		Width:      r.Width,
		Height:     r.Height,
		XAxis: gochart.XAxis{
			Name:  spec.XLabel,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Name:           spec.YLabel,
			Range:          yRange(spec.Values),
			ValueFormatter: valueFormatter,
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    spec.Title,
				XValues: xs,
				YValues: spec.Values,
				Style: gochart.Style{
					StrokeColor: drawing.ColorFromHex("4682b4"),
					StrokeWidth: 2,
					DotColor:    drawing.ColorFromHex("4682b4"),
					DotWidth:    4,
				},
			},
		},
	}
	if n > 5 {
		ch.XAxis.TickStyle = gochart.Style{TextRotationDegrees: 45}
	}
	return ch.Render(gochart.SVG, w)
}
