package valuation

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Totals are the headline figures of a set of open positions.
type Totals struct {
	Equity         decimal.Decimal
	Cost           decimal.Decimal
	Gain           decimal.Decimal
	GainPercentage decimal.Decimal
}

// Slice is the market value held in one asset type.
type Slice struct {
	Type       model.AssetType
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// Summarize totals market value and cost basis. GainPercentage is zero when
// nothing was invested.
func Summarize(assets []model.Asset) Totals {
	t := Totals{Equity: decimal.Zero, Cost: decimal.Zero, GainPercentage: decimal.Zero}
	for _, a := range assets {
		t.Equity = t.Equity.Add(a.MarketValue())
		t.Cost = t.Cost.Add(a.CostBasis())
	}
	t.Gain = t.Equity.Sub(t.Cost)
	if t.Cost.IsPositive() {
		t.GainPercentage = t.Gain.Div(t.Cost).Mul(hundred)
	}
	return t
}

// Allocate groups market value by asset type. Types without value are
// omitted; the result is sorted by value, largest first.
func Allocate(assets []model.Asset) []Slice {
	values := make(map[model.AssetType]decimal.Decimal)
	total := decimal.Zero
	for _, a := range assets {
		v := a.MarketValue()
		values[a.Type] = values[a.Type].Add(v)
		total = total.Add(v)
	}

	var out []Slice
	for _, typ := range model.AssetTypes {
		v, ok := values[typ]
		if !ok || !v.IsPositive() {
			continue
		}
		s := Slice{Type: typ, Value: v, Percentage: decimal.Zero}
		if total.IsPositive() {
			s.Percentage = v.Div(total).Mul(hundred)
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b Slice) int {
		return b.Value.Cmp(a.Value)
	})
	return out
}
