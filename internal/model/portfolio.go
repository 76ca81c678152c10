package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType is the instrument category used for grouping and allocation.
// Values are the display labels shown to the user.
type AssetType string

const (
	AssetStock       AssetType = "Ação BR"
	AssetStockInt    AssetType = "Stock US"
	AssetFII         AssetType = "FII"
	AssetREIT        AssetType = "REIT"
	AssetCrypto      AssetType = "Cripto"
	AssetFixedIncome AssetType = "Renda Fixa"
	AssetETF         AssetType = "ETF"
)

// AssetTypes lists every category in display order.
var AssetTypes = []AssetType{
	AssetStock,
	AssetStockInt,
	AssetFII,
	AssetREIT,
	AssetCrypto,
	AssetFixedIncome,
	AssetETF,
}

// OversellWarning records a SELL that asked for more units than were held.
// The sell is clamped to the held quantity; the warning only informs.
type OversellWarning struct {
	TransactionID string
	Ticker        string
	Date          time.Time
	Requested     decimal.Decimal
	Held          decimal.Decimal
}

// Position is the derived holding for one ticker.
type Position struct {
	Ticker      string
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	CostBasis   decimal.Decimal
	Warnings    []OversellWarning
}

// Asset is the display view of an open position.
// LastUpdated is zero when no quote has ever been applied.
type Asset struct {
	ID           string
	Ticker       string
	Name         string
	Type         AssetType
	Quantity     decimal.Decimal
	AverageCost  decimal.Decimal
	CurrentPrice decimal.Decimal
	LastUpdated  time.Time
}

// MarketValue is Quantity × CurrentPrice.
func (a Asset) MarketValue() decimal.Decimal {
	return a.Quantity.Mul(a.CurrentPrice)
}

// CostBasis is Quantity × AverageCost.
func (a Asset) CostBasis() decimal.Decimal {
	return a.Quantity.Mul(a.AverageCost)
}

// HistoryPoint is one entry of the invested-vs-equity series.
type HistoryPoint struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Invested int64     `json:"invested"`
	Equity   int64     `json:"equity"`
	Gain     int64     `json:"gain"`
}
