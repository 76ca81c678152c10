package quote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/quote"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooProvider_FetchPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("maps symbols and converts foreign currencies", func(t *testing.T) {
		client := testutil.NewMockYahooClient().
			WithPrice("PETR4.SA", "BRL", 38).
			WithPrice("AAPL", "USD", 190).
			WithPrice("MSFT", "USD", 400).
			WithPrice("BTC-BRL", "BRL", 350000).
			WithPrice("USDBRL=X", "BRL", 5)

		p := quote.NewYahooProvider(client, "BRL", nil)
		prices, err := p.FetchPrices(ctx, []string{"PETR4", "AAPL", "MSFT", "BTC"})
		require.NoError(t, err)

		assert.True(t, prices["PETR4"].Equal(decimal.NewFromInt(38)))
		assert.True(t, prices["AAPL"].Equal(decimal.NewFromInt(950)))
		assert.True(t, prices["MSFT"].Equal(decimal.NewFromInt(2000)))
		assert.True(t, prices["BTC"].Equal(decimal.NewFromInt(350000)))
		assert.Equal(t, 1, client.QueryCount("USDBRL=X"), "FX pair is fetched once per call")
	})

	t.Run("fixed income is skipped", func(t *testing.T) {
		client := testutil.NewMockYahooClient()
		p := quote.NewYahooProvider(client, "BRL", nil)

		prices, err := p.FetchPrices(ctx, []string{"TESOURO IPCA 2029"})
		require.NoError(t, err)
		assert.Empty(t, prices)
		assert.Empty(t, client.Queried)
	})

	t.Run("missing FX drops the quote", func(t *testing.T) {
		client := testutil.NewMockYahooClient().WithPrice("AAPL", "USD", 190)
		p := quote.NewYahooProvider(client, "BRL", nil)

		prices, err := p.FetchPrices(ctx, []string{"AAPL"})
		assert.Error(t, err)
		assert.Empty(t, prices)
	})

	t.Run("one failing symbol keeps the others", func(t *testing.T) {
		client := testutil.NewMockYahooClient().WithPrice("PETR4.SA", "BRL", 38)
		p := quote.NewYahooProvider(client, "BRL", nil)

		prices, err := p.FetchPrices(ctx, []string{"PETR4", "VALE3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VALE3")
		assert.NotContains(t, err.Error(), "PETR4")
		assert.True(t, prices["PETR4"].Equal(decimal.NewFromInt(38)))
		assert.Len(t, prices, 1)
	})

	t.Run("client errors are reported per ticker", func(t *testing.T) {
		client := testutil.NewMockYahooClient().WithError(errors.New("429 too many requests"))
		p := quote.NewYahooProvider(client, "BRL", nil)

		prices, err := p.FetchPrices(ctx, []string{"PETR4", "VALE3"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PETR4")
		assert.Empty(t, prices)
	})
}
