package model

import "time"

// AssetResponse is the API representation of an Asset.
type AssetResponse struct {
	ID             string     `json:"id"`
	Ticker         string     `json:"ticker"`
	Name           string     `json:"name"`
	Type           AssetType  `json:"type"`
	Quantity       float64    `json:"quantity"`
	AveragePrice   float64    `json:"averagePrice"`
	CurrentPrice   float64    `json:"currentPrice"`
	TotalCost      float64    `json:"totalCost"`
	MarketValue    float64    `json:"marketValue"`
	UnrealizedGain float64    `json:"unrealizedGain"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
}

// WarningResponse is the API representation of an OversellWarning.
type WarningResponse struct {
	TransactionID string  `json:"transactionId"`
	Ticker        string  `json:"ticker"`
	Date          string  `json:"date"`
	Requested     float64 `json:"requested"`
	Held          float64 `json:"held"`
}

// Allocation is the share of market value held in one asset type.
type Allocation struct {
	Type       AssetType `json:"type"`
	Value      float64   `json:"value"`
	Percentage float64   `json:"percentage"`
}

// PortfolioSummary aggregates the open positions.
type PortfolioSummary struct {
	TotalEquity         float64 `json:"totalEquity"`
	TotalCost           float64 `json:"totalCost"`
	TotalGain           float64 `json:"totalGain"`
	TotalGainPercentage float64 `json:"totalGainPercentage"`
	TotalDividends      float64 `json:"totalDividends"`
}

// PortfolioResponse is returned by the portfolio endpoints and pushed to
// stream subscribers after a refresh.
type PortfolioResponse struct {
	Assets        []AssetResponse   `json:"assets"`
	Summary       PortfolioSummary  `json:"summary"`
	Allocation    []Allocation      `json:"allocation"`
	Warnings      []WarningResponse `json:"warnings"`
	MissingQuotes []string          `json:"missingQuotes,omitempty"`
}

// PositionResponse is the detail view of a single ticker.
type PositionResponse struct {
	Ticker      string            `json:"ticker"`
	Type        AssetType         `json:"type"`
	Quantity    float64           `json:"quantity"`
	AverageCost float64           `json:"averageCost"`
	CostBasis   float64           `json:"costBasis"`
	Dividends   float64           `json:"dividends"`
	Asset       *AssetResponse    `json:"asset,omitempty"`
	Warnings    []WarningResponse `json:"warnings"`
}

// DividendResponse is the lifetime dividend income of one ticker.
type DividendResponse struct {
	Ticker string  `json:"ticker"`
	Total  float64 `json:"total"`
}

// ImportResponse reports the outcome of a file import.
type ImportResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []TransactionResponse `json:"transactions"`
	Rejected     []RejectedCandidate   `json:"rejected"`
}

// RejectedCandidate is an extracted row that failed validation.
type RejectedCandidate struct {
	Line   int    `json:"line"`
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}
