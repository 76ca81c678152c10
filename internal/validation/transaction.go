package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 .+\-]{0,31}$`)

// ValidateTicker checks that a ticker is non-empty and made of letters,
// digits, spaces, dots, plus and dashes (at most 32 characters).
func ValidateTicker(ticker string) error {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return fmt.Errorf("ticker is required")
	}
	if !tickerPattern.MatchString(t) {
		return fmt.Errorf("invalid ticker: %s", ticker)
	}
	return nil
}

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - date: Must be in YYYY-MM-DD format
//   - ticker: See ValidateTicker
//   - type: Must be one of: BUY, SELL, DIVIDEND (case-insensitive)
//   - quantity: Must be positive, except for DIVIDEND where zero means 1
//   - price: Must not be negative (zero records bonus shares or write-offs)
//   - costs: Must not be negative, nor exceed price for DIVIDEND
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	}

	if err := ValidateTicker(req.Ticker); err != nil {
		errors["ticker"] = err.Error()
	}

	kind := model.TransactionKind(strings.ToUpper(strings.TrimSpace(req.Type)))
	switch {
	case strings.TrimSpace(req.Type) == "":
		errors["type"] = "type is required"
	case !kind.Valid():
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if req.Quantity.IsNegative() || (req.Quantity.IsZero() && kind != model.KindDividend) {
		errors["quantity"] = "quantity must be positive"
	}

	if req.Price.IsNegative() {
		errors["price"] = "price must not be negative"
	}

	switch {
	case req.Costs.IsNegative():
		errors["costs"] = "costs must not be negative"
	case kind == model.KindDividend && req.Costs.GreaterThan(req.Price):
		errors["costs"] = "dividend costs must not exceed the amount"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
