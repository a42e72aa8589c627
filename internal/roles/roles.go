// Package roles infers which table column names the entity (country) of each
// row and which columns hold a year-keyed series.
package roles

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/popgraph/internal/analysis"
	"github.com/KaramelBytes/popgraph/internal/table"
)

var (
	// ErrNoEntityColumn is returned when no column can hold entity names.
	ErrNoEntityColumn = errors.New("no entity column")

	// ErrNoYearColumns is returned when no header starts with a four digit year.
	ErrNoYearColumns = errors.New("no year columns")
)

// DefaultKeywords are the header substrings that mark the country column.
var DefaultKeywords = []string{"country", "pais", "país"}

// Confidence tells how an entity column was chosen.
type Confidence int

const (
	// Matched means a header contained one of the keywords.
	Matched Confidence = iota
	// Fallback means the first text-typed column was taken instead.
	Fallback
)

func (c Confidence) String() string {
	switch c {
	case Matched:
		return "matched"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// Column is the inferred entity column.
type Column struct {
	Index      int
	Name       string
	Confidence Confidence
}

// Describe returns the diagnostic line shown to users.
func (c Column) Describe() string {
	if c.Confidence == Fallback {
		return fmt.Sprintf("no header mentions a country; using text column '%s' as the country column", c.Name)
	}
	return fmt.Sprintf("country column: %s", c.Name)
}

// YearColumn is a column whose header starts with a year.
type YearColumn struct {
	Index int
	Name  string
	Year  int
}

// Roles bundles the entity column and the year columns sorted by year.
type Roles struct {
	Entity Column
	Years  []YearColumn
}

// YearNames returns the year column headers in order.
func (r *Roles) YearNames() []string {
	out := make([]string, len(r.Years))
	for i, y := range r.Years {
		out[i] = y.Name
	}
	return out
}

// Options controls inference.
type Options struct {
	// Keywords overrides DefaultKeywords when non-empty.
	Keywords []string
	Numbers  analysis.NumberOptions
}

// Infer runs entity and year inference on t.
func Infer(t *table.Table, opt Options) (*Roles, error) {
	ent, err := InferEntity(t, opt)
	if err != nil {
		return nil, err
	}
	years, err := InferYears(t)
	if err != nil {
		return nil, err
	}
	return &Roles{Entity: ent, Years: years}, nil
}

// InferEntity returns the first header containing a keyword (case-insensitive),
// otherwise the first column with a non-numeric value. A table without data
// rows has no entities and yields ErrNoEntityColumn.
func InferEntity(t *table.Table, opt Options) (Column, error) {
	if t.Len() == 0 {
		return Column{}, fmt.Errorf("%w: %s has no data rows", ErrNoEntityColumn, t.Name)
	}
	keywords := opt.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	for i, h := range t.Header {
		lh := strings.ToLower(h)
		for _, k := range keywords {
			if k != "" && strings.Contains(lh, strings.ToLower(k)) {
				return Column{Index: i, Name: h, Confidence: Matched}, nil
			}
		}
	}
	rep := analysis.Profile(t, analysis.Options{Numbers: opt.Numbers})
	if c, ok := rep.FirstText(); ok {
		return Column{Index: c.Index, Name: c.Name, Confidence: Fallback}, nil
	}
	return Column{}, fmt.Errorf("%w: no header matches %s and every column is numeric", ErrNoEntityColumn, strings.Join(keywords, "|"))
}

// InferYears returns the headers that begin with four decimal digits, sorted
// by that year. Headers sharing a year keep their original order.
func InferYears(t *table.Table) ([]YearColumn, error) {
	var out []YearColumn
	for i, h := range t.Header {
		if y, ok := leadingYear(h); ok {
			out = append(out, YearColumn{Index: i, Name: h, Year: y})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoYearColumns, t.Name)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func leadingYear(h string) (int, bool) {
	if len(h) < 4 {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		if h[i] < '0' || h[i] > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(h[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}
