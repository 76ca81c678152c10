package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor reads broker position exports with a header row.
// Files without a recognisable ticker column are handed to TextExtractor.
type CSVExtractor struct{}

// Name returns "csv".
func (CSVExtractor) Name() string { return "csv" }

// Extract reads candidates from a ';' or ',' separated file.
func (e CSVExtractor) Extract(r io.Reader) ([]Candidate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	firstLine, _, _ := strings.Cut(string(data), "\n")
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(firstLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}

	cols, ok := findColumns(rows)
	if !ok {
		return TextExtractor{}.Extract(bytes.NewReader(data))
	}
	return fromRows(rows, lines, cols, e.Name())
}

// detectSeparator prefers ';', the Brazilian spreadsheet default, since ','
// also appears inside decimal numbers.
func detectSeparator(header string) rune {
	if strings.Count(header, ";") >= strings.Count(header, ",") && strings.Contains(header, ";") {
		return ';'
	}
	if strings.Contains(header, "\t") && !strings.Contains(header, ",") {
		return '\t'
	}
	return ','
}

// columns holds the indexes of the recognised header cells.
type columns struct {
	header   int
	ticker   int
	quantity int
	price    int
}

var (
	tickerHeaders   = []string{"ativo", "ticker", "código", "codigo", "papel"}
	quantityHeaders = []string{"qtd", "quantidade"}
	priceHeaders    = []string{"preço", "preco", "medio", "médio", "valor unitário", "valor unitario"}
)

// findColumns locates the header row: the first row with a ticker column.
// Only the first ten rows are searched.
func findColumns(rows [][]string) (columns, bool) {
	for i, row := range rows {
		if i >= 10 {
			break
		}
		cols := columns{header: i, ticker: -1, quantity: -1, price: -1}
		for j, cell := range row {
			h := strings.ToLower(strings.TrimSpace(cell))
			switch {
			case cols.ticker < 0 && containsAny(h, tickerHeaders):
				cols.ticker = j
			case cols.quantity < 0 && containsAny(h, quantityHeaders):
				cols.quantity = j
			case cols.price < 0 && containsAny(h, priceHeaders):
				cols.price = j
			}
		}
		if cols.ticker >= 0 {
			return cols, true
		}
	}
	return columns{}, false
}

// fromRows reads the data rows below the header. Blank rows are skipped;
// unreadable numbers are left at zero so validation rejects the row.
// lines holds the source line of each row; nil means row i is line i+1.
func fromRows(rows [][]string, lines []int, cols columns, source string) ([]Candidate, error) {
	if cols.quantity < 0 || cols.price < 0 {
		return nil, fmt.Errorf("header has a ticker column but no quantity or price column")
	}

	var out []Candidate
	for i := cols.header + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		c := Candidate{
			Ticker: strings.ToUpper(strings.TrimSpace(cell(row, cols.ticker))),
			Line:   i + 1,
			Source: source,
		}
		if lines != nil {
			c.Line = lines[i]
		}
		c.Quantity, _ = ParseNumber(cell(row, cols.quantity))
		c.Price, _ = ParseNumber(cell(row, cols.price))
		out = append(out, c)
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
