package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest is the body of POST /api/transaction.
// Numbers may be sent as JSON numbers or strings; strings keep exact decimals.
// For DIVIDEND entries quantity may be omitted and defaults to 1.
type CreateTransactionRequest struct {
	Date     string          `json:"date"`
	Ticker   string          `json:"ticker"`
	Type     string          `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Costs    decimal.Decimal `json:"costs"`
}
