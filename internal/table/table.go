// Package table loads delimited text files and workbooks into a rectangular
// table of header names and string cells.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrMalformedInput is returned when the input cannot be decoded or parsed.
	ErrMalformedInput = errors.New("malformed input")
)

// Table holds a header row and the data rows that follow it. Every row has
// exactly len(Header) cells: short rows are padded with empty cells and long
// rows are truncated at load time, and both are reported in Warnings.
type Table struct {
	Name     string
	Header   []string
	Rows     [][]string
	Warnings []string
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Header) }

// Cell returns the cell at row, col or "" when either index is out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Index returns the position of the first header equal to name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Head returns up to n leading data rows.
func (t *Table) Head(n int) [][]string {
	if n <= 0 {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// builder accumulates rows and applies the fixed-width row policy.
type builder struct {
	t         *Table
	maxRows   int
	seen      int
	padded    int
	truncated int
}

func newBuilder(name string, header []string, maxRows int) *builder {
	h := make([]string, len(header))
	for i, v := range header {
		if i == 0 {
			v = strings.TrimPrefix(v, "\ufeff")
		}
		h[i] = strings.TrimSpace(v)
	}
	return &builder{t: &Table{Name: name, Header: h}, maxRows: maxRows}
}

func (b *builder) add(rec []string) {
	b.seen++
	if b.maxRows > 0 && len(b.t.Rows) >= b.maxRows {
		return
	}
	w := len(b.t.Header)
	row := make([]string, w)
	switch {
	case len(rec) < w:
		b.padded++
	case len(rec) > w:
		b.truncated++
	}
	copy(row, rec)
	b.t.Rows = append(b.t.Rows, row)
}

func (b *builder) done() *Table {
	w := len(b.t.Header)
	if b.padded > 0 {
		b.t.Warnings = append(b.t.Warnings, fmt.Sprintf("padded %d short row(s) to %d columns", b.padded, w))
	}
	if b.truncated > 0 {
		b.t.Warnings = append(b.t.Warnings, fmt.Sprintf("truncated %d long row(s) to %d columns", b.truncated, w))
	}
	if kept := len(b.t.Rows); kept < b.seen {
		b.t.Warnings = append(b.t.Warnings, fmt.Sprintf("kept only %d/%d rows due to MaxRows", kept, b.seen))
	}
	return b.t
}
