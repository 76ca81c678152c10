package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelExtractor reads the first sheet of an .xlsx workbook. Rows go through
// the same header detection as CSV files; sheets without a ticker header are
// scanned as text lines.
type ExcelExtractor struct{}

// Name returns "excel".
func (ExcelExtractor) Name() string { return "excel" }

// Extract reads candidates from the first sheet.
func (e ExcelExtractor) Extract(r io.Reader) ([]Candidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	if cols, ok := findColumns(rows); ok {
		return fromRows(rows, nil, cols, e.Name())
	}

	var out []Candidate
	for i, row := range rows {
		if c, ok := parseLine(strings.Join(row, " ")); ok {
			c.Line = i + 1
			c.Source = e.Name()
			out = append(out, c)
		}
	}
	return out, nil
}
