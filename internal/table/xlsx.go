package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type workbook struct{}

func (workbook) CanRead(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

// Read loads the selected sheet; its first non-empty row is the header.
func (workbook) Read(r io.Reader, name string, opt Options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", ErrMalformedInput, name)
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		idx, err := f.GetSheetIndex(opt.Sheet)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: sheet '%s' not found in workbook '%s'; available sheets: %s",
				ErrMalformedInput, opt.Sheet, name, strings.Join(sheets, ", "))
		}
		sheet = opt.Sheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %w", ErrMalformedInput, sheet, err)
	}

	var b *builder
	for _, rec := range rows {
		if len(rec) == 0 {
			continue
		}
		if b == nil {
			b = newBuilder(name, rec, opt.MaxRows)
			continue
		}
		b.add(rec)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: sheet %s has no header row", ErrMalformedInput, sheet)
	}
	return b.done(), nil
}
