// Package series extracts year-ordered numeric series from a table.
package series

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/popgraph/internal/analysis"
	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/selection"
	"github.com/KaramelBytes/popgraph/internal/table"
)

var (
	// ErrEmptySeries is returned when an entity resolved but no cell parsed as a number.
	ErrEmptySeries = errors.New("empty series")

	// ErrInvalidColumn is returned for column numbers outside the table.
	ErrInvalidColumn = errors.New("invalid column")
)

// MissingPolicy decides what happens to cells that are not numbers.
type MissingPolicy int

const (
	// Drop omits the point.
	Drop MissingPolicy = iota
	// ZeroFill keeps the point with value 0.
	ZeroFill
)

func (p MissingPolicy) String() string {
	if p == ZeroFill {
		return "zero"
	}
	return "drop"
}

// ParsePolicy accepts "drop" (or "") and "zero".
func ParsePolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return Drop, nil
	case "zero", "zero-fill", "zerofill":
		return ZeroFill, nil
	default:
		return Drop, fmt.Errorf("unknown missing policy %q (want drop or zero)", s)
	}
}

// Point is one labelled value. Year is 0 for column-pick series.
type Point struct {
	Label string  `json:"label"`
	Year  int     `json:"year,omitempty"`
	Value float64 `json:"value"`
}

// Series is an ordered list of points plus how many cells were not numbers.
type Series struct {
	Entity      string        `json:"entity"`
	Points      []Point       `json:"points"`
	Dropped     int           `json:"dropped"`
	Substituted int           `json:"substituted"`
	Policy      MissingPolicy `json:"-"`
}

func (s *Series) Len() int { return len(s.Points) }

func (s *Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Summary is a one-line diagnostic such as "3 points, 1 dropped".
func (s *Series) Summary() string {
	msg := fmt.Sprintf("%d points", len(s.Points))
	if s.Dropped > 0 {
		msg += fmt.Sprintf(", %d dropped", s.Dropped)
	}
	if s.Substituted > 0 {
		msg += fmt.Sprintf(", %d set to 0", s.Substituted)
	}
	return msg
}

// Options controls extraction.
type Options struct {
	Policy  MissingPolicy
	Numbers analysis.NumberOptions
}

func (s *Series) add(label string, year int, cell string, opt Options) {
	v, ok := analysis.ParseNumeric(cell, opt.Numbers)
	if !ok {
		if opt.Policy == Drop {
			s.Dropped++
			return
		}
		s.Substituted++
		v = 0
	}
	s.Points = append(s.Points, Point{Label: label, Year: year, Value: v})
}

// Extract builds the series of entity from the first row whose entity cell
// equals it. Later rows with the same entity are ignored.
func Extract(t *table.Table, r *roles.Roles, entity string, opt Options) (*Series, error) {
	row := -1
	for i := 0; i < t.Len(); i++ {
		if strings.TrimSpace(t.Cell(i, r.Entity.Index)) == entity {
			row = i
			break
		}
	}
	if row < 0 {
		return nil, fmt.Errorf("%w: %q not in column %s", selection.ErrNoMatch, entity, r.Entity.Name)
	}
	s := &Series{Entity: entity, Policy: opt.Policy}
	for _, y := range r.Years {
		s.add(y.Name, y.Year, t.Cell(row, y.Index), opt)
	}
	if len(s.Points) == 0 {
		return s, fmt.Errorf("%w: %s has no numeric values in %d year columns", ErrEmptySeries, entity, len(r.Years))
	}
	return s, nil
}

// Columns builds a series from every row, labelled by column x with values
// from column y. Columns are 0-based.
func Columns(t *table.Table, x, y int, opt Options) (*Series, error) {
	for _, c := range []int{x, y} {
		if c < 0 || c >= t.Width() {
			return nil, fmt.Errorf("%w: %d (table has %d columns)", ErrInvalidColumn, c+1, t.Width())
		}
	}
	s := &Series{Entity: t.Header[y], Policy: opt.Policy}
	for i := 0; i < t.Len(); i++ {
		s.add(t.Cell(i, x), 0, t.Cell(i, y), opt)
	}
	if len(s.Points) == 0 {
		return s, fmt.Errorf("%w: column %s has no numeric values", ErrEmptySeries, t.Header[y])
	}
	return s, nil
}
