package analysis

import (
	"math"
	"strconv"
	"strings"
)

// NumberOptions sets the numeric locale. Zero separators are auto-detected per value.
type NumberOptions struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ParseNumeric parses a cell as a number. It accepts thousands separators,
// a comma decimal separator and a trailing percent sign. Empty cells, NaN and
// infinities are not numbers.
func ParseNumeric(s string, opt NumberOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	if dec == 0 {
		dec, thou = detectSeparators(raw, thou)
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// detectSeparators guesses the decimal separator from the last ',' and '.'.
// A lone comma group of exactly three digits ("1,000") or repeated commas
// ("1,234,567") are read as thousands grouping, as are repeated dots
// ("1.234.567").
func detectSeparators(raw string, thou rune) (rune, rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		if strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3 {
			return '.', ','
		}
		return ',', thou
	case strings.Count(raw, ".") > 1:
		return ',', '.'
	default:
		return '.', thou
	}
}
