package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of ledger entry kinds.
type TransactionKind string

const (
	KindBuy      TransactionKind = "BUY"
	KindSell     TransactionKind = "SELL"
	KindDividend TransactionKind = "DIVIDEND"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindDividend:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry.
//
// For DIVIDEND entries UnitPrice holds the gross cash amount and Costs the
// withheld tax. Seq is the ledger insertion order and breaks ties between
// entries sharing a date.
type Transaction struct {
	ID        string
	Seq       int64
	Date      time.Time
	Ticker    string
	Kind      TransactionKind
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Costs     decimal.Decimal
	CreatedAt time.Time
}

// TransactionResponse is the API representation of a ledger entry.
type TransactionResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Ticker    string    `json:"ticker"`
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Costs     float64   `json:"costs"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts the entry for the API.
func (t Transaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		Date:      t.Date.Format("2006-01-02"),
		Ticker:    t.Ticker,
		Type:      string(t.Kind),
		Quantity:  t.Quantity.InexactFloat64(),
		Price:     t.UnitPrice.InexactFloat64(),
		Costs:     t.Costs.InexactFloat64(),
		CreatedAt: t.CreatedAt,
	}
}
