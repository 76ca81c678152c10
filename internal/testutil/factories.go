package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent interface for creating ledger entries.
//
// Example usage:
//
//	// Simple buy with defaults
//	tx := testutil.NewTransaction("PETR4").Build(t, db)
//
//	// Customized sell
//	tx := testutil.NewTransaction("PETR4").
//	    Sell().
//	    WithDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).
//	    WithQuantity(50).
//	    WithUnitPrice(36).
//	    Build(t, db)
type TransactionBuilder struct {
	ID        string
	Date      time.Time
	Ticker    string
	Kind      model.TransactionKind
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Costs     decimal.Decimal
}

// NewTransaction creates a TransactionBuilder for a 100 x 10.00 buy dated 2024-01-02.
func NewTransaction(ticker string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:        MakeID(),
		Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Ticker:    ticker,
		Kind:      model.KindBuy,
		Quantity:  decimal.NewFromInt(100),
		UnitPrice: decimal.NewFromInt(10),
		Costs:     decimal.Zero,
	}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.ID = id
	return b
}

// WithDate sets the trade date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// WithKind sets the entry kind.
func (b *TransactionBuilder) WithKind(kind model.TransactionKind) *TransactionBuilder {
	b.Kind = kind
	return b
}

// Buy marks the entry as a BUY.
func (b *TransactionBuilder) Buy() *TransactionBuilder {
	return b.WithKind(model.KindBuy)
}

// Sell marks the entry as a SELL.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	return b.WithKind(model.KindSell)
}

// Dividend marks the entry as a DIVIDEND with quantity 1.
func (b *TransactionBuilder) Dividend(amount float64) *TransactionBuilder {
	b.Kind = model.KindDividend
	b.Quantity = decimal.NewFromInt(1)
	b.UnitPrice = decimal.NewFromFloat(amount)
	return b
}

// WithQuantity sets the quantity.
func (b *TransactionBuilder) WithQuantity(quantity float64) *TransactionBuilder {
	b.Quantity = decimal.NewFromFloat(quantity)
	return b
}

// WithUnitPrice sets the unit price.
func (b *TransactionBuilder) WithUnitPrice(price float64) *TransactionBuilder {
	b.UnitPrice = decimal.NewFromFloat(price)
	return b
}

// WithCosts sets the brokerage costs.
func (b *TransactionBuilder) WithCosts(costs float64) *TransactionBuilder {
	b.Costs = decimal.NewFromFloat(costs)
	return b
}

// Model returns the entry without persisting it.
func (b *TransactionBuilder) Model() model.Transaction {
	return model.Transaction{
		ID:        b.ID,
		Date:      b.Date,
		Ticker:    b.Ticker,
		Kind:      b.Kind,
		Quantity:  b.Quantity,
		UnitPrice: b.UnitPrice,
		Costs:     b.Costs,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// Build appends the entry to the ledger and returns it with its Seq set.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := b.Model()
	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}

// Convenience functions

// CreateBuy appends a BUY of quantity x price on date (YYYY-MM-DD).
//
// Example usage:
//
//	testutil.CreateBuy(t, db, "PETR4", "2024-01-10", 100, 30)
func CreateBuy(t *testing.T, db *sql.DB, ticker, date string, quantity, price float64) model.Transaction {
	t.Helper()
	return NewTransaction(ticker).WithDate(MustDate(t, date)).WithQuantity(quantity).WithUnitPrice(price).Build(t, db)
}

// CreateSell appends a SELL of quantity x price on date (YYYY-MM-DD).
func CreateSell(t *testing.T, db *sql.DB, ticker, date string, quantity, price float64) model.Transaction {
	t.Helper()
	return NewTransaction(ticker).Sell().WithDate(MustDate(t, date)).WithQuantity(quantity).WithUnitPrice(price).Build(t, db)
}

// CreateDividend appends a DIVIDEND of amount on date (YYYY-MM-DD).
func CreateDividend(t *testing.T, db *sql.DB, ticker, date string, amount float64) model.Transaction {
	t.Helper()
	return NewTransaction(ticker).Dividend(amount).WithDate(MustDate(t, date)).Build(t, db)
}

// CreatePetr4Ledger appends the reference PETR4 ledger: buy 100 @ 30 (+10),
// buy 50 @ 40 (+5), sell 60 @ 45 (+7).
func CreatePetr4Ledger(t *testing.T, db *sql.DB) []model.Transaction {
	t.Helper()
	return []model.Transaction{
		NewTransaction("PETR4").WithDate(MustDate(t, "2024-01-10")).WithQuantity(100).WithUnitPrice(30).WithCosts(10).Build(t, db),
		NewTransaction("PETR4").WithDate(MustDate(t, "2024-02-10")).WithQuantity(50).WithUnitPrice(40).WithCosts(5).Build(t, db),
		NewTransaction("PETR4").Sell().WithDate(MustDate(t, "2024-03-10")).WithQuantity(60).WithUnitPrice(45).WithCosts(7).Build(t, db),
	}
}

// CreateAssetSnapshot stores assets as the previous display view.
func CreateAssetSnapshot(t *testing.T, db *sql.DB, assets ...model.Asset) {
	t.Helper()
	if err := repository.NewAssetRepository(db).ReplaceAssets(context.Background(), assets); err != nil {
		t.Fatalf("Failed to create test asset snapshot: %v", err)
	}
}

// MustDate parses a YYYY-MM-DD date in UTC.
func MustDate(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("Invalid test date %q: %v", date, err)
	}
	return d
}
