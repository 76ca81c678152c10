// Package importer turns broker exports into ledger entries.
//
// Every extractor produces Candidates; nothing reaches the ledger until it
// passes Validate.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Candidate is one row read from an uploaded file, before validation.
type Candidate struct {
	Ticker   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Line     int    // 1-based line or row number in the source
	Source   string // extractor name
}

// Rejection explains why a candidate was not imported.
type Rejection struct {
	Candidate Candidate
	Reason    string
}

// Extractor reads candidates from a file body.
type Extractor interface {
	Name() string
	Extract(r io.Reader) ([]Candidate, error)
}

// ExtractorFor picks an extractor by file extension.
// PDF and unknown extensions return apperrors.ErrUnsupportedFormat.
func ExtractorFor(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return CSVExtractor{}, nil
	case ".txt":
		return TextExtractor{}, nil
	case ".xlsx", ".xlsm":
		return ExcelExtractor{}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, filepath.Ext(filename))
}

var tickerRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 .+\-]{0,31}$`)

// Validation failures.
var (
	ErrEmptyTicker      = errors.New("ticker is empty")
	ErrMalformedTicker  = errors.New("ticker is malformed")
	ErrNonPositiveQty   = errors.New("quantity must be positive")
	ErrNonPositivePrice = errors.New("price must be positive")
)

// Validate checks a candidate before it may become a ledger entry.
func Validate(c Candidate) error {
	switch {
	case c.Ticker == "":
		return ErrEmptyTicker
	case !tickerRe.MatchString(c.Ticker) || !strings.ContainsAny(c.Ticker, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
		return fmt.Errorf("%w: %q", ErrMalformedTicker, c.Ticker)
	case !c.Quantity.IsPositive():
		return ErrNonPositiveQty
	case !c.Price.IsPositive():
		return ErrNonPositivePrice
	}
	return nil
}

// Partition splits candidates into valid ones and rejections, keeping order.
func Partition(candidates []Candidate) ([]Candidate, []Rejection) {
	valid := make([]Candidate, 0, len(candidates))
	var rejected []Rejection
	for _, c := range candidates {
		if err := Validate(c); err != nil {
			rejected = append(rejected, Rejection{Candidate: c, Reason: err.Error()})
			continue
		}
		valid = append(valid, c)
	}
	return valid, rejected
}

// ToTransactions converts valid candidates into BUY entries dated on date
// with zero costs. newID supplies entry IDs.
func ToTransactions(candidates []Candidate, date time.Time, newID func() string) []model.Transaction {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	txs := make([]model.Transaction, 0, len(candidates))
	for _, c := range candidates {
		txs = append(txs, model.Transaction{
			ID:        newID(),
			Date:      day,
			Ticker:    c.Ticker,
			Kind:      model.KindBuy,
			Quantity:  c.Quantity,
			UnitPrice: c.Price,
			Costs:     decimal.Zero,
			CreatedAt: now,
		})
	}
	return txs
}

// ParseNumber reads a number written in Brazilian or plain notation:
// "1.234,56", "R$ 32,50", "32.5" and "1234" are all accepted.
// With a comma present, dots are thousands separators; without one, a single
// dot is the decimal point and several dots are thousands separators.
func ParseNumber(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("R$", "", "$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}
