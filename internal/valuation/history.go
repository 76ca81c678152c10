package valuation

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

var half = decimal.NewFromFloat(0.5)

// HistoricalSeries replays the BUY and SELL entries in date order and yields
// one point per distinct transaction date.
//
// Market value at every date is held quantity × today's price taken from
// assetsByTicker, not the price that prevailed on that date. A SELL reduces
// the invested total by sold quantity × the ticker's current average cost, or
// by the sell price when the ticker is no longer held. Invested and equity are
// floored at zero.
//
// The sequence is finite and may be ranged over any number of times.
func HistoricalSeries(txs []model.Transaction, assetsByTicker map[string]model.Asset) iter.Seq[model.HistoryPoint] {
	trades := chronological(txs, isTrade)

	return func(yield func(model.HistoryPoint) bool) {
		held := make(map[string]decimal.Decimal)
		var tickers []string
		invested := decimal.Zero

		for i := 0; i < len(trades); {
			day := dayOf(trades[i].Date)
			for ; i < len(trades) && dayOf(trades[i].Date).Equal(day); i++ {
				t := trades[i]
				current, seen := held[t.Ticker]
				if !seen {
					tickers = append(tickers, t.Ticker)
				}

				switch t.Kind {
				case model.KindBuy:
					held[t.Ticker] = current.Add(t.Quantity)
					invested = invested.Add(t.Quantity.Mul(t.UnitPrice)).Add(t.Costs)
				case model.KindSell:
					if !current.IsPositive() {
						held[t.Ticker] = current
						continue
					}
					sold := decimal.Min(t.Quantity, current)
					avg := t.UnitPrice
					if a, ok := assetsByTicker[t.Ticker]; ok {
						avg = a.AverageCost
					}
					invested = invested.Sub(sold.Mul(avg))
					held[t.Ticker] = current.Sub(sold)
				}
			}

			market := decimal.Zero
			for _, ticker := range tickers {
				if a, ok := assetsByTicker[ticker]; ok {
					market = market.Add(held[ticker].Mul(a.CurrentPrice))
				}
			}

			point := model.HistoryPoint{
				Date:     day,
				Label:    day.Format("02/01"),
				Invested: max(0, roundHalfUp(invested)),
				Equity:   max(0, roundHalfUp(market)),
				Gain:     roundHalfUp(market.Sub(invested)),
			}
			if !yield(point) {
				return
			}
		}
	}
}

// CollectHistory materialises HistoricalSeries. It returns an empty, non-nil
// slice for a ledger without trades.
func CollectHistory(txs []model.Transaction, assetsByTicker map[string]model.Asset) []model.HistoryPoint {
	points := slices.Collect(HistoricalSeries(txs, assetsByTicker))
	if points == nil {
		points = []model.HistoryPoint{}
	}
	return points
}

// roundHalfUp rounds to the nearest integer, halves toward +Inf.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}
