// Package quote fetches current market prices for tickers.
//
// Providers return partial results: a ticker missing from the returned map
// simply has no quote. Prices are always in the reporting currency.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Provider fetches current prices.
type Provider interface {
	Name() string
	FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
}

// TokenSource returns the API token to use for a request. An empty token
// means the provider is used anonymously.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Chain asks providers in order, each only for the tickers still unpriced.
type Chain struct {
	providers []Provider
}

// NewChain creates a Chain over providers. Nil providers are skipped.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Name returns the provider names joined with "+".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Providers returns the chained provider names in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// FetchPrices merges the first positive price each provider returns.
//
// Provider errors are logged and do not stop the chain. An error wrapping
// apperrors.ErrProviderUnavailable is returned only when at least one
// provider failed and no ticker could be priced.
func (c *Chain) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	missing := normalize(tickers)
	var errs []error

	for _, p := range c.providers {
		if len(missing) == 0 || ctx.Err() != nil {
			break
		}

		got, err := p.FetchPrices(ctx, missing)
		if err != nil {
			log.Printf("quote provider %s: %v", p.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}

		for _, t := range missing {
			if v, ok := got[t]; ok && v.IsPositive() {
				prices[t] = v
			}
		}
		missing = slices.DeleteFunc(missing, func(t string) bool {
			_, ok := prices[t]
			return ok
		})
	}

	if err := ctx.Err(); err != nil && len(prices) == 0 {
		return prices, err
	}
	if len(prices) == 0 && len(errs) > 0 {
		return prices, fmt.Errorf("%w: %w", apperrors.ErrProviderUnavailable, errors.Join(errs...))
	}
	return prices, nil
}

// normalize upper-cases, trims and de-duplicates tickers, keeping order.
func normalize(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// positive copies only the positive prices of m.
func positive(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		if v.IsPositive() {
			out[k] = v
		}
	}
	return out
}
