package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pxToPt converts pixels at 96 DPI, the vgimg default, to points.
const pxToPt = 72.0 / 96.0

var (
	barColor  = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	lineColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
)

// PlotRenderer draws PNG charts with gonum/plot.
type PlotRenderer struct {
	Width, Height int
}

func (r *PlotRenderer) Format() string { return "png" }

func (r *PlotRenderer) Render(w io.Writer, spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Y.Tick.Marker = thousandsTicks{}

	switch spec.Kind {
	case Bar:
		if err := addBars(p, spec); err != nil {
			return err
		}
	default:
		if err := addLine(p, spec); err != nil {
			return err
		}
	}
	p.NominalX(spec.Labels...)
	if len(spec.Labels) > 5 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	wt, err := p.WriterTo(vg.Length(float64(r.Width)*pxToPt), vg.Length(float64(r.Height)*pxToPt), "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func addBars(p *plot.Plot, spec Spec) error {
	values := make(plotter.Values, len(spec.Values))
	copy(values, spec.Values)
	width := vg.Points(20)
	if n := len(values); n > 0 {
		// shrink bars so they fit the plot area
		if fit := vg.Length(800.0 / float64(n) * 0.6); fit < width {
			width = fit
		}
	}
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	lo, hi := bounds(spec.Values)
	p.Y.Min = math.Min(0, lo*1.15)
	p.Y.Max = hi * 1.15
	if p.Y.Max <= p.Y.Min {
		p.Y.Max = p.Y.Min + 1
	}

	xys := make(plotter.XYs, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v + (p.Y.Max-p.Y.Min)*0.02}
		labels[i] = FormatValue(v)
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("bar labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = draw.XCenter
	}
	p.Add(lbl)
	return nil
}

func addLine(p *plot.Plot, spec Spec) error {
	xys := make(plotter.XYs, len(spec.Values))
	for i, v := range spec.Values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	points.Color = lineColor
	points.Shape = draw.CircleGlyph{}
	p.Add(plotter.NewGrid(), line, points)
	return nil
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// thousandsTicks labels the default ticks with thousands separators.
type thousandsTicks struct{}

func (thousandsTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = FormatValue(ticks[i].Value)
		}
	}
	return ticks
}
