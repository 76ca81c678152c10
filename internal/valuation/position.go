// Package valuation derives holdings, cost basis, dividend income and the
// equity history from a ledger snapshot.
//
// Every function in this package is a pure function of its arguments. Callers
// pass the full ledger on each call and thread any "previous" display state
// through explicitly.
package valuation

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// ComputePosition replays the BUY and SELL entries of ticker using the
// weighted-average cost method.
//
// Entries are processed by ascending date; entries sharing a date keep their
// ledger order. A BUY adds quantity×unitPrice+costs to the cost basis. A SELL
// leaves the average cost untouched and shrinks the cost basis to
// remaining quantity × average. A SELL for more units than held is clamped to
// a full liquidation and reported in Position.Warnings.
//
// DIVIDEND entries and entries of other tickers are ignored.
func ComputePosition(ticker string, txs []model.Transaction) model.Position {
	pos := model.Position{
		Ticker:      ticker,
		Quantity:    decimal.Zero,
		AverageCost: decimal.Zero,
		CostBasis:   decimal.Zero,
	}

	qty, basis := decimal.Zero, decimal.Zero
	for _, t := range chronological(txs, tradesOf(ticker)) {
		switch t.Kind {
		case model.KindBuy:
			basis = basis.Add(t.Quantity.Mul(t.UnitPrice)).Add(t.Costs)
			qty = qty.Add(t.Quantity)
		case model.KindSell:
			if t.Quantity.GreaterThan(qty) {
				pos.Warnings = append(pos.Warnings, model.OversellWarning{
					TransactionID: t.ID,
					Ticker:        t.Ticker,
					Date:          t.Date,
					Requested:     t.Quantity,
					Held:          qty,
				})
			}
			if !qty.IsPositive() {
				continue
			}
			avg := basis.Div(qty)
			qty = qty.Sub(decimal.Min(t.Quantity, qty))
			basis = qty.Mul(avg)
		}
	}

	pos.Quantity = qty
	pos.CostBasis = basis
	if qty.IsPositive() {
		pos.AverageCost = basis.Div(qty)
	}
	return pos
}

// Positions computes the position of every ticker that appears in the
// ledger, in order of first appearance. Closed positions are included.
func Positions(txs []model.Transaction) []model.Position {
	tickers, grouped := groupByTicker(txs)
	positions := make([]model.Position, 0, len(tickers))
	for _, ticker := range tickers {
		positions = append(positions, ComputePosition(ticker, grouped[ticker]))
	}
	return positions
}

// Warnings flattens the oversell warnings of positions.
func Warnings(positions []model.Position) []model.OversellWarning {
	var out []model.OversellWarning
	for _, p := range positions {
		out = append(out, p.Warnings...)
	}
	return out
}

func tradesOf(ticker string) func(model.Transaction) bool {
	return func(t model.Transaction) bool {
		return t.Ticker == ticker && t.Kind != model.KindDividend
	}
}

func isTrade(t model.Transaction) bool {
	return t.Kind == model.KindBuy || t.Kind == model.KindSell
}

// chronological returns the entries accepted by keep, stable-sorted by day.
func chronological(txs []model.Transaction, keep func(model.Transaction) bool) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, t := range txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return dayOf(a.Date).Compare(dayOf(b.Date))
	})
	return out
}

func groupByTicker(txs []model.Transaction) ([]string, map[string][]model.Transaction) {
	var order []string
	grouped := make(map[string][]model.Transaction)
	for _, t := range txs {
		if _, seen := grouped[t.Ticker]; !seen {
			order = append(order, t.Ticker)
		}
		grouped[t.Ticker] = append(grouped[t.Ticker], t)
	}
	return order, grouped
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
