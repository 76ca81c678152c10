package testutil

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// MockQuoteProvider is an in-memory quote.Provider for testing.
type MockQuoteProvider struct {
	mu sync.Mutex
	// Prices is the full price table; only requested tickers are returned
	Prices map[string]decimal.Decimal
	// MockError is returned alongside the prices when set
	MockError error
	// Calls records the ticker lists of every call
	Calls [][]string
	// Block, when set, is waited on before answering
	Block chan struct{}
}

// NewMockQuoteProvider creates a provider answering with prices.
//
// Example usage:
//
//	provider := testutil.NewMockQuoteProvider(map[string]float64{"PETR4": 38.12})
func NewMockQuoteProvider(prices map[string]float64) *MockQuoteProvider {
	m := &MockQuoteProvider{Prices: make(map[string]decimal.Decimal, len(prices))}
	for k, v := range prices {
		m.Prices[k] = decimal.NewFromFloat(v)
	}
	return m
}

// Name returns "mock".
func (m *MockQuoteProvider) Name() string { return "mock" }

// FetchPrices returns the configured prices among tickers.
func (m *MockQuoteProvider) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]string(nil), tickers...))
	out := make(map[string]decimal.Decimal)
	for _, t := range tickers {
		if v, ok := m.Prices[t]; ok {
			out[t] = v
		}
	}
	return out, m.MockError
}

// CallCount returns the number of FetchPrices calls.
func (m *MockQuoteProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// WithError configures the mock to return err.
func (m *MockQuoteProvider) WithError(err error) *MockQuoteProvider {
	m.MockError = err
	return m
}
