package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BrapiBaseURL is the brapi.dev API root.
const BrapiBaseURL = "https://brapi.dev/api"

// BrapiConfig configures a BrapiProvider.
type BrapiConfig struct {
	BaseURL    string
	Token      TokenSource
	Limiter    *rate.Limiter // nil means unlimited
	BatchSize  int
	HTTPClient *http.Client
}

// BrapiProvider quotes B3 listings through brapi.dev.
type BrapiProvider struct {
	baseURL    string
	token      TokenSource
	limiter    *rate.Limiter
	batchSize  int
	httpClient *http.Client
}

// NewBrapiProvider creates a BrapiProvider, filling defaults for empty fields.
func NewBrapiProvider(cfg BrapiConfig) *BrapiProvider {
	p := &BrapiProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		limiter:    cfg.Limiter,
		batchSize:  cfg.BatchSize,
		httpClient: cfg.HTTPClient,
	}
	if p.baseURL == "" {
		p.baseURL = BrapiBaseURL
	}
	if p.token == nil {
		p.token = StaticToken("")
	}
	if p.batchSize < 1 {
		p.batchSize = 10
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return p
}

// Name returns "brapi".
func (p *BrapiProvider) Name() string { return "brapi" }

// FetchPrices quotes the B3 tickers among tickers, one request per batch.
// Failed batches are reported in the returned error; prices from the other
// batches are still returned.
func (p *BrapiProvider) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	var eligible []string
	for _, t := range normalize(tickers) {
		if brapiEligible(t) {
			eligible = append(eligible, t)
		}
	}
	prices := make(map[string]decimal.Decimal)
	if len(eligible) == 0 {
		return prices, nil
	}

	token, err := p.token(ctx)
	if err != nil {
		return prices, fmt.Errorf("failed to resolve brapi token: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	// The group only bounds concurrency. Failed batches are collected instead
	// of returned so the prices of the other batches survive.
	g := new(errgroup.Group)
	g.SetLimit(4)

	for batch := range slices.Chunk(eligible, p.batchSize) {
		g.Go(func() error {
			got, err := p.fetchBatch(ctx, batch, token)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("batch %s: %w", strings.Join(batch, ","), err))
			}
			for k, v := range got {
				prices[k] = v
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return an error

	return prices, errors.Join(errs...)
}

func (p *BrapiProvider) fetchBatch(ctx context.Context, batch []string, token string) (map[string]decimal.Decimal, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	addr := fmt.Sprintf("%s/quote/%s", p.baseURL, strings.Join(batch, ","))
	if token != "" {
		addr += "?token=" + url.QueryEscape(token)
	}

	var jobj any
	if err := getJSON(ctx, p.httpClient, addr, nil, &jobj); err != nil {
		return nil, err
	}

	results, err := jsonpath.Get("$.results[*]", jobj)
	if err != nil {
		return nil, fmt.Errorf("unexpected brapi response: %w", err)
	}
	list, ok := results.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected brapi response: results is %T", results)
	}

	prices := make(map[string]decimal.Decimal, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		symbol, _ := obj["symbol"].(string)
		price, ok := obj["regularMarketPrice"].(float64)
		if symbol == "" || !ok || price <= 0 {
			continue
		}
		prices[strings.ToUpper(symbol)] = decimal.NewFromFloat(price)
	}
	return prices, nil
}

// brapiEligible keeps tickers brapi can quote: five or more characters, or
// four with a digit in the last position. Only letters and digits pass.
func brapiEligible(ticker string) bool {
	for _, r := range ticker {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	if len(ticker) >= 5 {
		return true
	}
	return len(ticker) == 4 && unicode.IsDigit(rune(ticker[3]))
}

// getJSON GETs addr and decodes the JSON body into data.
// Non-200 responses are errors.
func getJSON(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(data)
}
