package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// b3TickerRe matches the common B3 share classes and unit/FII suffix.
var b3TickerRe = regexp.MustCompile(`^[A-Z]{4}(3|4|5|6|11)$`)

var fieldSep = regexp.MustCompile(`[\s;|]+`)

// TextExtractor reads free-form statements line by line. A line yields a
// candidate when it has a B3 ticker and at least two non-zero numbers: the
// first is the quantity and the second the price.
type TextExtractor struct{}

// Name returns "text".
func (TextExtractor) Name() string { return "text" }

// Extract scans r for candidate lines.
func (e TextExtractor) Extract(r io.Reader) ([]Candidate, error) {
	var out []Candidate
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if c, ok := parseLine(scanner.Text()); ok {
			c.Line = line
			c.Source = e.Name()
			out = append(out, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	return out, nil
}

func parseLine(text string) (Candidate, bool) {
	tokens := fieldSep.Split(strings.TrimSpace(text), -1)

	var c Candidate
	found := false
	numbers := 0
	for _, tok := range tokens {
		tok = strings.Trim(tok, `",`)
		if !found && b3TickerRe.MatchString(tok) {
			c.Ticker = tok
			found = true
			continue
		}
		if numbers == 2 {
			continue
		}
		n, err := ParseNumber(tok)
		if err != nil || n.IsZero() {
			continue
		}
		if numbers == 0 {
			c.Quantity = n
		} else {
			c.Price = n
		}
		numbers++
	}
	return c, found && numbers == 2
}
