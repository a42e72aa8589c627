package cmd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/popgraph/internal/analysis"
	"github.com/KaramelBytes/popgraph/internal/chart"
	cfgpkg "github.com/KaramelBytes/popgraph/internal/config"
	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/session"
	"github.com/KaramelBytes/popgraph/internal/table"
)

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

// sessionSettings turns the effective configuration into session options.
func sessionSettings() (session.Settings, error) {
	c := currentConfig()
	var st session.Settings

	delim, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return st, err
	}
	nums, err := numberOptions(c.DecimalSeparator, c.ThousandsSeparator)
	if err != nil {
		return st, err
	}
	policy, err := series.ParsePolicy(c.MissingPolicy)
	if err != nil {
		return st, err
	}
	st.Table = table.Options{Delimiter: delim, Sheet: c.Sheet, MaxRows: c.MaxRows}
	st.Roles = roles.Options{Keywords: c.EntityKeywords, Numbers: nums}
	st.Series = series.Options{Policy: policy, Numbers: nums}
	return st, nil
}

// parseDelimiter maps the configured delimiter; empty means by extension.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	}
	if r, size := utf8.DecodeRuneInString(s); size == len(s) && r != utf8.RuneError && r != '"' && r != '\n' && r != '\r' {
		return r, nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func numberOptions(decimal, thousands string) (analysis.NumberOptions, error) {
	var opt analysis.NumberOptions
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return opt, nil
}

// chartOptions resolves kind, format and renderer, letting non-empty
// arguments override the configuration.
func chartOptions(kind, format string) (chart.Kind, chart.Renderer, error) {
	c := currentConfig()
	if kind == "" {
		kind = c.ChartKind
	}
	if format == "" {
		format = c.ChartFormat
	}
	k, err := chart.ParseKind(kind)
	if err != nil {
		return "", nil, err
	}
	r, err := chart.New(format, c.ChartWidth, c.ChartHeight)
	if err != nil {
		return "", nil, err
	}
	return k, r, nil
}
