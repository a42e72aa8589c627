package table

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Options controls how a file is read.
type Options struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits the data rows kept; 0 means unlimited.
	MaxRows int
}

// Format reads one kind of tabular file.
type Format interface {
	CanRead(name string) bool
	Read(r io.Reader, name string, opt Options) (*Table, error)
}

var registry []Format

// Register adds a format to the registry. Later registrations are tried first.
func Register(f Format) {
	registry = append([]Format{f}, registry...)
}

func init() {
	Register(delimited{})
	Register(workbook{})
}

// formatFor picks a format by file name, falling back to delimited text.
func formatFor(name string) Format {
	for _, f := range registry {
		if f.CanRead(name) {
			return f
		}
	}
	return delimited{}
}

// Supported reports whether name has an extension one of the formats claims.
func Supported(name string) bool {
	for _, f := range registry {
		if f.CanRead(name) {
			return true
		}
	}
	return false
}

// Load opens path and reads it with the format matching its extension.
func Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return formatFor(path).Read(f, filepath.Base(path), opt)
}

// Parse reads an in-memory buffer, choosing the format from name.
func Parse(name string, data []byte, opt Options) (*Table, error) {
	return formatFor(name).Read(bytes.NewReader(data), name, opt)
}

// Read parses delimited text from r.
func Read(r io.Reader, name string, opt Options) (*Table, error) {
	return delimited{}.Read(r, name, opt)
}

// DecodeDataURL decodes the base64 payload of a "data:<type>;base64,<payload>"
// URL as sent by browser upload widgets. A bare base64 string is accepted too.
func DecodeDataURL(contents string) ([]byte, error) {
	payload := strings.TrimSpace(contents)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty upload", ErrMalformedInput)
	}
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return nil, fmt.Errorf("%w: data URL without payload", ErrMalformedInput)
		}
		if !strings.HasSuffix(payload[:i], ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrMalformedInput)
		}
		payload = payload[i+1:]
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", ErrMalformedInput, err)
	}
	return b, nil
}

type delimited struct{}

func (delimited) CanRead(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".tsv") || strings.HasSuffix(n, ".txt")
}

func (delimited) Read(r io.Reader, name string, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delimiterFor(name, opt.Delimiter)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedInput, name)
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrMalformedInput, err)
	}
	if err := checkUTF8(header, 1); err != nil {
		return nil, err
	}
	b := newBuilder(name, header, opt.MaxRows)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: read row %d: %w", ErrMalformedInput, line, err)
		}
		if err := checkUTF8(rec, line); err != nil {
			return nil, err
		}
		b.add(rec)
	}
	return b.done(), nil
}

func delimiterFor(name string, d rune) rune {
	if d != 0 {
		return d
	}
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

func checkUTF8(rec []string, line int) error {
	for _, v := range rec {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: row %d is not valid UTF-8", ErrMalformedInput, line)
		}
	}
	return nil
}
