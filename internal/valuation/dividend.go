package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// Income is the lifetime net dividend income of one ticker.
type Income struct {
	Ticker string
	Total  decimal.Decimal
}

// AccumulatedDividends sums unitPrice − costs over the DIVIDEND entries of
// ticker. Dates and quantities are ignored.
func AccumulatedDividends(ticker string, txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Ticker == ticker && t.Kind == model.KindDividend {
			total = total.Add(t.UnitPrice.Sub(t.Costs))
		}
	}
	return total
}

// DividendIncome returns the accumulated dividends of every ticker with at
// least one DIVIDEND entry, in order of first appearance.
func DividendIncome(txs []model.Transaction) []Income {
	var out []Income
	index := make(map[string]int)
	for _, t := range txs {
		if t.Kind != model.KindDividend {
			continue
		}
		i, ok := index[t.Ticker]
		if !ok {
			i = len(out)
			index[t.Ticker] = i
			out = append(out, Income{Ticker: t.Ticker, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(t.UnitPrice.Sub(t.Costs))
	}
	return out
}
