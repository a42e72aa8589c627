package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/popgraph/internal/table"
)

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		opt  NumberOptions
		want float64
		ok   bool
	}{
		{"1000", NumberOptions{}, 1000, true},
		{" 3.5 ", NumberOptions{}, 3.5, true},
		{"1,234,567", NumberOptions{}, 1234567, true},
		{"1.234.567", NumberOptions{}, 1234567, true},
		{"12.345.678,5", NumberOptions{}, 12345678.5, true},
		{"1,000", NumberOptions{}, 1000, true},
		{"12,5", NumberOptions{}, 12.5, true},
		{"1.000,5", NumberOptions{}, 1000.5, true},
		{"1,000.5", NumberOptions{}, 1000.5, true},
		{"12.5%", NumberOptions{}, 12.5, true},
		{"1 000", NumberOptions{}, 1000, true},
		{"1.000", NumberOptions{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000, true},
		{"-2e3", NumberOptions{}, -2000, true},
		{"abc", NumberOptions{}, 0, false},
		{"", NumberOptions{}, 0, false},
		{"NaN", NumberOptions{}, 0, false},
		{"Inf", NumberOptions{}, 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumeric(c.in, c.opt)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseNumeric(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func loadTable(t *testing.T, in string) *table.Table {
	t.Helper()
	tab, err := table.Read(strings.NewReader(in), "pop.csv", table.Options{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tab
}

func TestProfileKinds(t *testing.T) {
	tab := loadTable(t, "Rank,Name,1990,Notes\n1,Peru,100,\n2,Chile,abc,\n3,Peru,300,\n")
	rep := Profile(tab, DefaultOptions())
	kinds := []string{}
	for _, c := range rep.Cols {
		kinds = append(kinds, c.Kind)
	}
	if got := strings.Join(kinds, ","); got != "numeric,text,text,empty" {
		t.Fatalf("kinds = %s", got)
	}
	rank := rep.Cols[0]
	if rank.Min != 1 || rank.Max != 3 || rank.Mean != 2 {
		t.Fatalf("rank stats = %+v", rank)
	}
	if rep.Cols[1].Unique != 2 {
		t.Fatalf("unique = %d", rep.Cols[1].Unique)
	}
	first, ok := rep.FirstText()
	if !ok || first.Name != "Name" || first.Index != 1 {
		t.Fatalf("first text = %+v, %v", first, ok)
	}
}

func TestProfileNoTextColumn(t *testing.T) {
	rep := Profile(loadTable(t, "a,b\n1,2\n3,\n"), DefaultOptions())
	if _, ok := rep.FirstText(); ok {
		t.Fatalf("expected no text column")
	}
}

func TestProfileShortRows(t *testing.T) {
	tab := &table.Table{
		Name:   "manual",
		Header: []string{"Country", "2000", "2010"},
		Rows:   [][]string{{"Peru", "1"}, {"Chile", "3", "4"}},
	}
	rep := Profile(tab, DefaultOptions())
	if len(rep.Cols) != 3 {
		t.Fatalf("cols = %d", len(rep.Cols))
	}
	if c := rep.Cols[2]; c.NonNull != 1 || c.Missing != 1 {
		t.Fatalf("2010 column = %+v", c)
	}
	if md := rep.Markdown(); !strings.Contains(md, "| Peru | 1 |  |") {
		t.Fatalf("short row not padded in samples:\n%s", md)
	}
}

func TestMarkdown(t *testing.T) {
	tab := loadTable(t, "Country,2000,2010\nPeru,1,2\nChile,3\n")
	opt := DefaultOptions()
	opt.SampleRows = 1
	rep := Profile(tab, opt)
	rep.AddSection("Roles", "entity: Country (matched)")
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: pop.csv",
		"Rows: 2",
		"- Country: text (non-null 2, missing 0.0%)",
		"- 2010: numeric (non-null 1, missing 50.0%)",
		"[ROLES]\n- entity: Country (matched)",
		"| Country | 2000 | 2010 |",
		"| Peru | 1 | 2 |",
		"[NOTES]\n- padded 1 short row(s) to 3 columns",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| Chile |") {
		t.Fatalf("expected only one sample row:\n%s", md)
	}
}

func TestDescribe(t *testing.T) {
	out, err := Describe(loadTable(t, "country,2000,2010\nPeru,1,2\nChile,3,4\n"))
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(out, "mean") {
		t.Fatalf("describe output missing mean row: %s", out)
	}
	if _, err := Describe(loadTable(t, "country,2000\n")); err == nil {
		t.Fatalf("expected error for header-only table")
	}
}
