package valuation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// BuildPortfolio derives the display view of every open position.
//
// Parameters:
//   - txs: the full ledger snapshot
//   - previous: the last display view the caller holds, may be nil
//   - quotes: fresh prices keyed by ticker, may be partial or nil
//   - asOf: the time stamped on assets that received a fresh quote
//
// Returns one Asset per ticker with quantity > 0, in order of first appearance
// in the ledger.
func BuildPortfolio(txs []model.Transaction, previous []model.Asset, quotes map[string]decimal.Decimal, asOf time.Time) []model.Asset {
	return Assemble(Positions(txs), previous, quotes, asOf)
}

// Assemble merges computed positions with previous display state and quotes.
//
// The current price is the fresh quote when one is present and positive,
// else the previously known price when positive, else the average cost.
// LastUpdated moves to asOf only when a fresh quote is applied.
func Assemble(positions []model.Position, previous []model.Asset, quotes map[string]decimal.Decimal, asOf time.Time) []model.Asset {
	prev := make(map[string]model.Asset, len(previous))
	for _, a := range previous {
		prev[a.Ticker] = a
	}

	assets := make([]model.Asset, 0, len(positions))
	for _, p := range positions {
		if !p.Quantity.IsPositive() {
			continue
		}

		old, known := prev[p.Ticker]
		a := model.Asset{
			ID:          DisplayID(p.Ticker),
			Ticker:      p.Ticker,
			Name:        p.Ticker,
			Type:        Classify(p.Ticker),
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost,
		}
		if known && old.ID != "" {
			a.ID = old.ID
		}
		if known && old.Name != "" {
			a.Name = old.Name
		}

		quote, quoted := quotes[p.Ticker]
		switch {
		case quoted && quote.IsPositive():
			a.CurrentPrice = quote
			a.LastUpdated = asOf
		case known && old.CurrentPrice.IsPositive():
			a.CurrentPrice = old.CurrentPrice
			a.LastUpdated = old.LastUpdated
		default:
			a.CurrentPrice = p.AverageCost
			if known {
				a.LastUpdated = old.LastUpdated
			}
		}

		assets = append(assets, a)
	}
	return assets
}

// DisplayID returns the stable identifier of the display view of ticker.
func DisplayID(ticker string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("bolsamaster:asset:"+ticker)).String()
}

// OpenTickers lists the tickers of positions with quantity > 0.
func OpenTickers(positions []model.Position) []string {
	var tickers []string
	for _, p := range positions {
		if p.Quantity.IsPositive() {
			tickers = append(tickers, p.Ticker)
		}
	}
	return tickers
}

// ByTicker indexes assets by ticker.
func ByTicker(assets []model.Asset) map[string]model.Asset {
	out := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		out[a.Ticker] = a
	}
	return out
}
