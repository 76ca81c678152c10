package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// CoinGeckoBaseURL is the public CoinGecko API root.
const CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoIDs maps ledger symbols to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"BNB":   "binancecoin",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"ATOM":  "cosmos",
	"TRX":   "tron",
}

// CoinGeckoConfig configures a CoinGeckoProvider.
type CoinGeckoConfig struct {
	BaseURL    string
	APIKey     TokenSource // demo key, optional
	Currency   string
	Limiter    *rate.Limiter
	HTTPClient *http.Client
}

// CoinGeckoProvider quotes crypto symbols with the simple price endpoint.
type CoinGeckoProvider struct {
	baseURL    string
	apiKey     TokenSource
	currency   string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewCoinGeckoProvider creates a CoinGeckoProvider, filling defaults for empty fields.
func NewCoinGeckoProvider(cfg CoinGeckoConfig) *CoinGeckoProvider {
	p := &CoinGeckoProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		currency:   strings.ToLower(cfg.Currency),
		limiter:    cfg.Limiter,
		httpClient: cfg.HTTPClient,
	}
	if p.baseURL == "" {
		p.baseURL = CoinGeckoBaseURL
	}
	if p.apiKey == nil {
		p.apiKey = StaticToken("")
	}
	if p.currency == "" {
		p.currency = "brl"
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return p
}

// Name returns "coingecko".
func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// FetchPrices quotes every known crypto symbol among tickers in one request.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)

	symbolByID := make(map[string]string)
	var ids []string
	for _, t := range normalize(tickers) {
		if id, ok := coinGeckoIDs[t]; ok {
			symbolByID[id] = t
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return prices, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return prices, err
		}
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", p.currency)
	addr := p.baseURL + "/simple/price?" + q.Encode()

	key, err := p.apiKey(ctx)
	if err != nil {
		return prices, fmt.Errorf("failed to resolve coingecko key: %w", err)
	}
	var header http.Header
	if key != "" {
		header = http.Header{"x-cg-demo-api-key": {key}}
	}

	var body map[string]map[string]float64
	if err := getJSON(ctx, p.httpClient, addr, header, &body); err != nil {
		return prices, err
	}

	for id, byCurrency := range body {
		symbol, ok := symbolByID[id]
		if !ok {
			continue
		}
		if v := byCurrency[p.currency]; v > 0 {
			prices[symbol] = decimal.NewFromFloat(v)
		}
	}
	return prices, nil
}
