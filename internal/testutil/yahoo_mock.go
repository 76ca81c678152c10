package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined responses per symbol instead of making API calls.
type MockYahooClient struct {
	mu sync.Mutex
	// Responses maps a Yahoo symbol (e.g. "PETR4.SA", "USDBRL=X") to its response
	Responses map[string]yahoo.Response
	// MockError is returned for every query when set
	MockError error
	// Queried records every symbol queried, in call order
	Queried []string
}

// NewMockYahooClient creates a mock with no symbols. Unknown symbols return an error.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{Responses: make(map[string]yahoo.Response)}
}

// QueryFiveDaySymbol returns the configured response for symbol.
func (m *MockYahooClient) QueryFiveDaySymbol(_ context.Context, symbol string) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queried = append(m.Queried, symbol)
	if m.MockError != nil {
		return yahoo.Response{}, m.MockError
	}
	resp, ok := m.Responses[symbol]
	if !ok {
		return yahoo.Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return resp, nil
}

// ParseChart delegates to the real ParseChart method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseChart(yahooResult yahoo.Response) (yahoo.PriceChart, error) {
	return yahoo.NewFinanceClient().ParseChart(yahooResult)
}

// QueryCount returns how many queries were made for symbol.
func (m *MockYahooClient) QueryCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.Queried {
		if s == symbol {
			n++
		}
	}
	return n
}

// WithError configures the mock to return the specified error.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// WithPrice configures symbol to close at price in currency.
func (m *MockYahooClient) WithPrice(symbol, currency string, price float64) *MockYahooClient {
	m.Responses[symbol] = CreateMockYahooResponse(symbol, currency, 5, price)
	return m
}

// CreateMockYahooResponse creates a mock chart of `days` daily closes ending
// yesterday. Prices rise 0.5 a day and the last close equals last.
// The meta market price is left empty so the last close is used.
func CreateMockYahooResponse(symbol, currency string, days int, last float64) yahoo.Response {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	timestamps := make([]int64, days)
	opens := make([]*float64, days)
	highs := make([]*float64, days)
	lows := make([]*float64, days)
	closes := make([]*float64, days)
	volumes := make([]*int64, days)

	for i := 0; i < days; i++ {
		date := yesterday.AddDate(0, 0, -days+i+1)
		timestamps[i] = date.Unix()

		closePrice := last - float64(days-1-i)*0.5
		open := closePrice - 0.25
		high := closePrice + 1.0
		low := closePrice - 0.5
		volume := int64(1000000 + i*10000)

		opens[i] = &open
		highs[i] = &high
		lows[i] = &low
		closes[i] = &closePrice
		volumes[i] = &volume
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:   symbol,
						Currency: currency,
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{
							{
								Open:   opens,
								High:   highs,
								Low:    lows,
								Close:  closes,
								Volume: volumes,
							},
						},
					},
				},
			},
		},
	}
}

// CreateMockYahooErrorResponse creates a mock Yahoo response with an error.
func CreateMockYahooErrorResponse(code, description string) yahoo.Response {
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{},
			Error:  &yahoo.Error{Code: code, Description: description},
		},
	}
}
