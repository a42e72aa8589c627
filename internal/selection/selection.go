// Package selection resolves user input (a list number, an exact name or a
// partial name) to one entity of a loaded table.
package selection

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/popgraph/internal/table"
)

var (
	// ErrNoMatch is returned when no entity matches the input.
	ErrNoMatch = errors.New("no matching entity")

	// ErrInvalidSelection is returned for empty input, non-numeric picks and
	// out of range list numbers.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Entities returns the sorted distinct non-empty values of column col.
func Entities(t *table.Table, col int) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < t.Len(); i++ {
		v := strings.TrimSpace(t.Cell(i, col))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Resolution is the outcome of Resolve. Entity is set when the input named
// exactly one entity; otherwise Matches holds the candidates to choose from.
type Resolution struct {
	Input   string
	Entity  string
	Matches []string
}

// Ambiguous reports whether the caller must disambiguate with Choose.
func (r Resolution) Ambiguous() bool { return r.Entity == "" && len(r.Matches) > 1 }

// Resolve maps input to an entity of the list. Input made only of digits is
// a 1-based list number. Otherwise an exact match wins, then case-insensitive
// substring matches in list order.
func Resolve(entities []string, input string) (Resolution, error) {
	in := strings.TrimSpace(input)
	res := Resolution{Input: in}
	if in == "" {
		return res, fmt.Errorf("%w: empty input", ErrInvalidSelection)
	}
	if isDigits(in) {
		n, err := pick(len(entities), in)
		if err != nil {
			return res, err
		}
		res.Entity = entities[n-1]
		return res, nil
	}
	for _, e := range entities {
		if e == in {
			res.Entity = e
			return res, nil
		}
	}
	lin := strings.ToLower(in)
	for _, e := range entities {
		if strings.Contains(strings.ToLower(e), lin) {
			res.Matches = append(res.Matches, e)
		}
	}
	switch len(res.Matches) {
	case 0:
		return res, fmt.Errorf("%w for %q", ErrNoMatch, in)
	case 1:
		res.Entity = res.Matches[0]
	}
	return res, nil
}

// Choose picks one of matches by its 1-based number.
func Choose(matches []string, input string) (string, error) {
	in := strings.TrimSpace(input)
	if !isDigits(in) {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, in)
	}
	n, err := pick(len(matches), in)
	if err != nil {
		return "", err
	}
	return matches[n-1], nil
}

func pick(size int, in string) (int, error) {
	n, err := strconv.Atoi(in)
	if err != nil || n < 1 || n > size {
		return 0, fmt.Errorf("%w: %s is outside 1..%d", ErrInvalidSelection, in, size)
	}
	return n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
