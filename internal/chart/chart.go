// Package chart turns series into bar or line charts. PNG output is drawn
// with gonum/plot and SVG output with go-chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/utils"
)

// Kind is the chart type.
type Kind string

const (
	Line Kind = "line"
	Bar  Kind = "bar"
)

// ParseKind accepts "line" and "bar"; empty means line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "line":
		return Line, nil
	case "bar":
		return Bar, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q (want line or bar)", s)
	}
}

// Spec is everything a renderer needs.
type Spec struct {
	Kind   Kind
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []float64
}

func (s Spec) validate() error {
	if len(s.Values) == 0 {
		return errors.New("chart: no values to plot")
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("chart: %d labels for %d values", len(s.Labels), len(s.Values))
	}
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("chart: values must be finite")
		}
	}
	return nil
}

// FromSeries builds the "Population of <entity> by year" chart.
func FromSeries(s *series.Series, kind Kind) Spec {
	return Spec{
		Kind:   kind,
		Title:  fmt.Sprintf("Population of %s by year", s.Entity),
		XLabel: "Year",
		YLabel: "Population",
		Labels: s.Labels(),
		Values: s.Values(),
	}
}

// FromColumns builds a bar chart of column y against the labels of column x.
func FromColumns(s *series.Series, xName, yName, title string) Spec {
	if title == "" {
		title = fmt.Sprintf("%s by %s", yName, xName)
	}
	return Spec{
		Kind:   Bar,
		Title:  title,
		XLabel: xName,
		YLabel: yName,
		Labels: s.Labels(),
		Values: s.Values(),
	}
}

// Renderer draws a Spec in one image format.
type Renderer interface {
	Render(w io.Writer, spec Spec) error
	Format() string
}

// New returns the renderer for format ("png" or "svg") at the given pixel size.
func New(format string, width, height int) (Renderer, error) {
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 600
	}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return &PlotRenderer{Width: width, Height: height}, nil
	case "svg":
		return &SVGRenderer{Width: width, Height: height}, nil
	default:
		return nil, fmt.Errorf("unsupported chart format %q (want png or svg)", format)
	}
}

// Save renders spec and writes it to path atomically.
func Save(path string, spec Spec, r Renderer) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, spec); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// FileName returns a filesystem-friendly name such as "population_peru.png".
func FileName(entity, format string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(entity) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "chart"
	}
	return fmt.Sprintf("population_%s.%s", name, format)
}

var printer = message.NewPrinter(language.English)

// FormatValue prints v with thousands separators, keeping two decimals for
// non-integers: 1234567 -> "1,234,567", 0.5 -> "0.50".
func FormatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}
