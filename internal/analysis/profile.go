// Package analysis profiles loaded tables: column kinds, numeric statistics
// and a compact Markdown summary.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/popgraph/internal/table"
)

// Column kinds.
const (
	KindNumeric = "numeric"
	KindText    = "text"
	KindEmpty   = "empty"
)

// Options controls profiling.
type Options struct {
	Numbers NumberOptions
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Sections []Section
}

// Section is an extra titled block appended by callers, such as inferred roles.
type Section struct {
	Title string
	Lines []string
}

// ColumnSummary captures the inferred kind and statistics of one column.
type ColumnSummary struct {
	Index   int
	Name    string
	Kind    string
	NonNull int
	Missing int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	// Text columns
	Unique       int
	ExampleTexts []string
}

// IsText reports whether at least one non-empty cell failed to parse as a number.
func (c ColumnSummary) IsText() bool { return c.Kind == KindText }

type colAcc struct {
	nonNil int
	miss   int
	n      int
	mean   float64
	min    float64
	max    float64
	txtCnt int
	cats   map[string]struct{}
	exText []string
}

// Profile computes a Report for t.
func Profile(t *table.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	rep.Warnings = append(rep.Warnings, t.Warnings...)
	accs := make([]*colAcc, t.Width())
	for i := range accs {
		accs[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]struct{}{}}
	}
	for i := range t.Rows {
		for j, c := range accs {
			v := strings.TrimSpace(t.Cell(i, j))
			if v == "" {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := ParseNumeric(v, opt.Numbers); ok {
				c.n++
				c.mean += (x - c.mean) / float64(c.n)
				c.min = math.Min(c.min, x)
				c.max = math.Max(c.max, x)
				continue
			}
			c.txtCnt++
			if len(c.cats) <= 10000 {
				c.cats[v] = struct{}{}
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, v)
			}
		}
	}
	for j, c := range accs {
		s := ColumnSummary{Index: j, Name: t.Header[j], NonNull: c.nonNil, Missing: c.miss}
		switch {
		case c.txtCnt > 0:
			s.Kind = KindText
			s.Unique = len(c.cats)
			s.ExampleTexts = c.exText
		case c.n > 0:
			s.Kind = KindNumeric
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		default:
			s.Kind = KindEmpty
		}
		rep.Cols = append(rep.Cols, s)
	}
	n := opt.SampleRows
	if n < 0 {
		n = 0
	}
	rep.Samples = t.Head(n)
	return rep
}

// FirstText returns the first text-typed column, if any.
func (r *Report) FirstText() (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.IsText() {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// AddSection appends a titled block rendered before the sample rows.
func (r *Report) AddSection(title string, lines ...string) {
	r.Sections = append(r.Sections, Section{Title: title, Lines: lines})
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
		case KindText:
			b.WriteString(fmt.Sprintf(" — unique=%d", c.Unique))
			if len(c.ExampleTexts) > 0 {
				b.WriteString(", e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	for _, s := range r.Sections {
		b.WriteString(fmt.Sprintf("\n[%s]\n", strings.ToUpper(s.Title)))
		for _, l := range s.Lines {
			b.WriteString("- ")
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
