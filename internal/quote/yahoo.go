package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bolsamaster/bolsamaster-backend/internal/valuation"
	"github.com/bolsamaster/bolsamaster-backend/internal/yahoo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// YahooProvider quotes B3, international and crypto tickers through the
// Yahoo Finance chart API, converting foreign-currency prices with the
// matching FX pair.
type YahooProvider struct {
	client   yahoo.Client
	currency string
	limiter  *rate.Limiter
}

// NewYahooProvider creates a YahooProvider reporting in currency.
// limiter may be nil.
func NewYahooProvider(client yahoo.Client, currency string, limiter *rate.Limiter) *YahooProvider {
	return &YahooProvider{
		client:   client,
		currency: strings.ToUpper(currency),
		limiter:  limiter,
	}
}

// Name returns "yahoo".
func (p *YahooProvider) Name() string { return "yahoo" }

// FetchPrices quotes each ticker with its own chart request.
// Fixed-income names are skipped; Yahoo does not list them.
func (p *YahooProvider) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	var (
		mu     sync.Mutex
		prices = make(map[string]decimal.Decimal)
		errs   []error
		fx     = newFXCache(p)
	)

	// As in the brapi provider, per-ticker failures are collected so one bad
	// symbol does not drop the others.
	g := new(errgroup.Group)
	g.SetLimit(4)

	for _, ticker := range normalize(tickers) {
		symbol, ok := p.symbolFor(ticker)
		if !ok {
			continue
		}
		g.Go(func() error {
			price, err := p.price(ctx, symbol, fx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
				return nil
			}
			prices[ticker] = price
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return an error

	return prices, errors.Join(errs...)
}

// symbolFor maps a ledger ticker to its Yahoo symbol.
func (p *YahooProvider) symbolFor(ticker string) (string, bool) {
	switch {
	case valuation.IsCrypto(ticker):
		return ticker + "-" + p.currency, true
	case valuation.IsB3Ticker(ticker):
		return ticker + ".SA", true
	case strings.ContainsAny(ticker, " /"):
		return "", false
	}
	return ticker, true
}

// price returns the latest price of symbol in the reporting currency.
func (p *YahooProvider) price(ctx context.Context, symbol string, fx *fxCache) (decimal.Decimal, error) {
	chart, err := p.chart(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	last, ok := chart.LatestPrice()
	if !ok {
		return decimal.Zero, fmt.Errorf("no price in chart for %s", symbol)
	}
	price := decimal.NewFromFloat(last)

	currency := strings.ToUpper(chart.Currency)
	if currency == "" || currency == p.currency {
		return price, nil
	}
	fxRate, err := fx.rate(ctx, currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("no %s%s rate: %w", currency, p.currency, err)
	}
	return price.Mul(fxRate), nil
}

func (p *YahooProvider) chart(ctx context.Context, symbol string) (yahoo.PriceChart, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return yahoo.PriceChart{}, err
		}
	}
	resp, err := p.client.QueryFiveDaySymbol(ctx, symbol)
	if err != nil {
		return yahoo.PriceChart{}, err
	}
	return p.client.ParseChart(resp)
}

// fxCache fetches each FX pair at most once per FetchPrices call.
type fxCache struct {
	p     *YahooProvider
	mu    sync.Mutex
	rates map[string]*fxEntry
}

type fxEntry struct {
	once sync.Once
	rate decimal.Decimal
	err  error
}

func newFXCache(p *YahooProvider) *fxCache {
	return &fxCache{p: p, rates: make(map[string]*fxEntry)}
}

func (c *fxCache) rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	c.mu.Lock()
	e, ok := c.rates[currency]
	if !ok {
		e = &fxEntry{}
		c.rates[currency] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		chart, err := c.p.chart(ctx, currency+c.p.currency+"=X")
		if err != nil {
			e.err = err
			return
		}
		last, ok := chart.LatestPrice()
		if !ok {
			e.err = fmt.Errorf("empty FX chart")
			return
		}
		e.rate = decimal.NewFromFloat(last)
	})
	return e.rate, e.err
}
