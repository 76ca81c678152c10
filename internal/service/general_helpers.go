package service

import (
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// RoundingPrecision is the number of decimal places kept for monetary values in API responses.
const RoundingPrecision = 2

// round rounds a decimal value to RoundingPrecision places and converts it for
// the API. Ties are rounded away from zero.
//
// Example:
//
//	round(decimal.RequireFromString("123.456"))  // returns 123.46
//	round(decimal.RequireFromString("0.005"))    // returns 0.01
func round(value decimal.Decimal) float64 {
	return value.Round(RoundingPrecision).InexactFloat64()
}

// toAssetResponse converts a display asset for the API. Prices and quantities
// keep their precision; totals are rounded.
func toAssetResponse(a model.Asset) model.AssetResponse {
	resp := model.AssetResponse{
		ID:             a.ID,
		Ticker:         a.Ticker,
		Name:           a.Name,
		Type:           a.Type,
		Quantity:       a.Quantity.InexactFloat64(),
		AveragePrice:   a.AverageCost.InexactFloat64(),
		CurrentPrice:   a.CurrentPrice.InexactFloat64(),
		TotalCost:      round(a.CostBasis()),
		MarketValue:    round(a.MarketValue()),
		UnrealizedGain: round(a.MarketValue().Sub(a.CostBasis())),
	}
	if !a.LastUpdated.IsZero() {
		updated := a.LastUpdated
		resp.LastUpdated = &updated
	}
	return resp
}

func toWarningResponses(warnings []model.OversellWarning) []model.WarningResponse {
	out := make([]model.WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, model.WarningResponse{
			TransactionID: w.TransactionID,
			Ticker:        w.Ticker,
			Date:          w.Date.Format("2006-01-02"),
			Requested:     w.Requested.InexactFloat64(),
			Held:          w.Held.InexactFloat64(),
		})
	}
	return out
}
