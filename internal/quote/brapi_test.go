package quote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/quote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBrapi serves /quote/{tickers} from a fixed price table.
type fakeBrapi struct {
	mu      sync.Mutex
	prices  map[string]float64
	fail    map[string]bool
	paths   []string
	tokens  []string
	handler http.Handler
}

func newFakeBrapi(prices map[string]float64) *fakeBrapi {
	f := &fakeBrapi{prices: prices, fail: map[string]bool{}}
	f.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tickers := strings.Split(strings.TrimPrefix(r.URL.Path, "/quote/"), ",")

		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.tokens = append(f.tokens, r.URL.Query().Get("token"))
		f.mu.Unlock()

		results := []map[string]any{}
		for _, t := range tickers {
			if f.fail[t] {
				http.Error(w, `{"error":true}`, http.StatusInternalServerError)
				return
			}
			if p, ok := f.prices[t]; ok {
				results = append(results, map[string]any{"symbol": t, "regularMarketPrice": p, "currency": "BRL"})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": results}) //nolint:errcheck
	})
	return f
}

func TestBrapiProvider_FetchPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("quotes only B3 tickers in batches", func(t *testing.T) {
		fake := newFakeBrapi(map[string]float64{"PETR4": 38.12, "VALE3": 61.5, "HGLG11": 160.2})
		server := httptest.NewServer(fake.handler)
		defer server.Close()

		p := quote.NewBrapiProvider(quote.BrapiConfig{
			BaseURL:   server.URL,
			Token:     quote.StaticToken("tok"),
			BatchSize: 2,
		})

		prices, err := p.FetchPrices(ctx, []string{"PETR4", "VALE3", "HGLG11", "AAPL", "BTC", "TESOURO IPCA 2029"})
		require.NoError(t, err)

		assert.Len(t, prices, 3)
		assert.True(t, prices["PETR4"].Equal(decimal.RequireFromString("38.12")))
		assert.True(t, prices["HGLG11"].Equal(decimal.RequireFromString("160.2")))

		sort.Strings(fake.paths)
		assert.Equal(t, []string{"/quote/HGLG11", "/quote/PETR4,VALE3"}, fake.paths)
		assert.Equal(t, []string{"tok", "tok"}, fake.tokens)
	})

	t.Run("four character tickers need a trailing digit", func(t *testing.T) {
		fake := newFakeBrapi(map[string]float64{"ABC4": 10})
		server := httptest.NewServer(fake.handler)
		defer server.Close()

		p := quote.NewBrapiProvider(quote.BrapiConfig{BaseURL: server.URL})
		prices, err := p.FetchPrices(ctx, []string{"ABC4", "MSFT"})
		require.NoError(t, err)

		assert.Len(t, prices, 1)
		assert.Equal(t, []string{"/quote/ABC4"}, fake.paths)
		assert.Equal(t, []string{""}, fake.tokens, "no token is sent when none is configured")
	})

	t.Run("failed batch keeps other batches", func(t *testing.T) {
		fake := newFakeBrapi(map[string]float64{"PETR4": 38.12, "VALE3": 61.5})
		fake.fail["VALE3"] = true
		server := httptest.NewServer(fake.handler)
		defer server.Close()

		p := quote.NewBrapiProvider(quote.BrapiConfig{BaseURL: server.URL, BatchSize: 1})
		prices, err := p.FetchPrices(ctx, []string{"PETR4", "VALE3"})

		assert.Error(t, err)
		assert.Len(t, prices, 1)
		assert.Contains(t, prices, "PETR4")
	})

	t.Run("every failed batch is reported", func(t *testing.T) {
		fake := newFakeBrapi(map[string]float64{"PETR4": 38.12, "VALE3": 61.5, "ITUB4": 33})
		fake.fail["VALE3"] = true
		fake.fail["ITUB4"] = true
		server := httptest.NewServer(fake.handler)
		defer server.Close()

		p := quote.NewBrapiProvider(quote.BrapiConfig{BaseURL: server.URL, BatchSize: 1})
		prices, err := p.FetchPrices(ctx, []string{"PETR4", "VALE3", "ITUB4"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "VALE3")
		assert.Contains(t, err.Error(), "ITUB4")
		assert.True(t, prices["PETR4"].Equal(decimal.RequireFromString("38.12")))
		assert.Len(t, prices, 1)
	})

	t.Run("no eligible tickers makes no request", func(t *testing.T) {
		fake := newFakeBrapi(nil)
		server := httptest.NewServer(fake.handler)
		defer server.Close()

		p := quote.NewBrapiProvider(quote.BrapiConfig{BaseURL: server.URL})
		prices, err := p.FetchPrices(ctx, []string{"BTC", "AAPL"})
		require.NoError(t, err)
		assert.Empty(t, prices)
		assert.Empty(t, fake.paths)
	})
}
