package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/quote"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/stream"
	"github.com/bolsamaster/bolsamaster-backend/internal/valuation"
)

// PortfolioService computes the display view of the ledger.
//
// The last computed view is persisted and threaded back in as the previous
// state of the next computation, so known prices survive restarts. A mutex
// serialises every recompute-and-persist cycle. Quote fetches happen outside
// the lock.
type PortfolioService struct {
	transactionRepo *repository.TransactionRepository
	assetRepo       *repository.AssetRepository
	quotes          quote.Provider
	hub             *stream.Hub[model.PortfolioResponse]

	mu  sync.Mutex
	now func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
// quotes and hub may be nil; without quotes RefreshQuotes fails with
// apperrors.ErrProviderUnavailable and without hub nothing is broadcast.
func NewPortfolioService(
	transactionRepo *repository.TransactionRepository,
	assetRepo *repository.AssetRepository,
	quotes quote.Provider,
	hub *stream.Hub[model.PortfolioResponse],
) *PortfolioService {
	return &PortfolioService{
		transactionRepo: transactionRepo,
		assetRepo:       assetRepo,
		quotes:          quotes,
		hub:             hub,
		now:             time.Now,
	}
}

// WithClock replaces the clock used to stamp refreshed assets.
func (s *PortfolioService) WithClock(now func() time.Time) *PortfolioService {
	s.now = now
	return s
}

// Subscribe registers a listener for portfolios computed after a refresh or
// a ledger change. The returned func unregisters it.
func (s *PortfolioService) Subscribe() (<-chan model.PortfolioResponse, func()) {
	if s.hub == nil {
		ch := make(chan model.PortfolioResponse)
		close(ch)
		return ch, func() {}
	}
	return s.hub.Subscribe()
}

// GetPortfolio returns every open position priced with the last known
// prices, together with the summary, the allocation and any oversell warnings.
func (s *PortfolioService) GetPortfolio(ctx context.Context) (model.PortfolioResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.recompute(ctx, nil)
	if err != nil {
		return model.PortfolioResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolio, err)
	}
	return resp, nil
}

// RefreshQuotes fetches fresh prices for the open positions, rebuilds the
// portfolio, persists it and broadcasts it to subscribers.
//
// A partial quote result is applied; tickers without a price keep their
// previous price and are listed in MissingQuotes. When providers fail and
// nothing was priced, the error wraps apperrors.ErrFailedToRefreshQuotes.
func (s *PortfolioService) RefreshQuotes(ctx context.Context) (model.PortfolioResponse, error) {
	if s.quotes == nil {
		return model.PortfolioResponse{}, apperrors.ErrProviderUnavailable
	}

	txs, err := s.transactionRepo.ListTransactions(ctx)
	if err != nil {
		return model.PortfolioResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRefreshQuotes, err)
	}
	tickers := valuation.OpenTickers(valuation.Positions(txs))

	var prices map[string]decimal.Decimal
	if len(tickers) > 0 {
		prices, err = s.quotes.FetchPrices(ctx, tickers)
		if err != nil && len(prices) == 0 {
			return model.PortfolioResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRefreshQuotes, err)
		}
		if err != nil {
			log.Printf("quote refresh partially failed: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.recompute(ctx, prices)
	if err != nil {
		return model.PortfolioResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRefreshQuotes, err)
	}
	s.broadcast(resp)
	return resp, nil
}

// LedgerChanged rebuilds the persisted portfolio after a ledger write and
// pushes it to subscribers. Failures are logged.
func (s *PortfolioService) LedgerChanged(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.recompute(ctx, nil)
	if err != nil {
		log.Printf("failed to rebuild portfolio after ledger change: %v", err)
		return
	}
	s.broadcast(resp)
}

// GetHistory returns the invested-vs-equity series, one point per distinct
// trade date, valued with the current prices of the open positions.
func (s *PortfolioService) GetHistory(ctx context.Context) ([]model.HistoryPoint, error) {
	txs, previous, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolioHistory, err)
	}

	assets := valuation.BuildPortfolio(txs, previous, nil, s.now())
	return valuation.CollectHistory(txs, valuation.ByTicker(assets)), nil
}

// GetDividends returns the lifetime net dividend income per ticker, in
// order of first appearance, and the overall total.
func (s *PortfolioService) GetDividends(ctx context.Context) ([]model.DividendResponse, float64, error) {
	txs, err := s.transactionRepo.ListTransactions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetDividends, err)
	}

	total := decimal.Zero
	income := valuation.DividendIncome(txs)
	out := make([]model.DividendResponse, 0, len(income))
	for _, inc := range income {
		total = total.Add(inc.Total)
		out = append(out, model.DividendResponse{Ticker: inc.Ticker, Total: round(inc.Total)})
	}
	return out, round(total), nil
}

// GetPosition returns the holding of a single ticker, including a closed one.
// Returns apperrors.ErrPositionNotFound when the ledger never mentions ticker.
func (s *PortfolioService) GetPosition(ctx context.Context, ticker string) (model.PositionResponse, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	txs, err := s.transactionRepo.ListTransactionsByTicker(ctx, ticker)
	if err != nil {
		return model.PositionResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolio, err)
	}
	if len(txs) == 0 {
		return model.PositionResponse{}, apperrors.ErrPositionNotFound
	}
	previous, err := s.assetRepo.ListAssets(ctx)
	if err != nil {
		return model.PositionResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetPortfolio, err)
	}

	pos := valuation.ComputePosition(ticker, txs)
	resp := model.PositionResponse{
		Ticker:      ticker,
		Type:        valuation.Classify(ticker),
		Quantity:    pos.Quantity.InexactFloat64(),
		AverageCost: pos.AverageCost.InexactFloat64(),
		CostBasis:   round(pos.CostBasis),
		Dividends:   round(valuation.AccumulatedDividends(ticker, txs)),
		Warnings:    toWarningResponses(pos.Warnings),
	}

	assets := valuation.Assemble([]model.Position{pos}, previous, nil, s.now())
	if len(assets) == 1 {
		asset := toAssetResponse(assets[0])
		resp.Asset = &asset
	}
	return resp, nil
}

// recompute rebuilds the display view from a fresh ledger snapshot and the
// persisted previous view, applies prices and persists the result.
// Callers must hold s.mu.
func (s *PortfolioService) recompute(ctx context.Context, prices map[string]decimal.Decimal) (model.PortfolioResponse, error) {
	txs, previous, err := s.load(ctx)
	if err != nil {
		return model.PortfolioResponse{}, err
	}

	positions := valuation.Positions(txs)
	assets := valuation.Assemble(positions, previous, prices, s.now().UTC())
	if err := s.assetRepo.ReplaceAssets(ctx, assets); err != nil {
		return model.PortfolioResponse{}, err
	}

	resp := buildPortfolioResponse(txs, positions, assets)
	if prices != nil {
		for _, a := range assets {
			if p, ok := prices[a.Ticker]; !ok || !p.IsPositive() {
				resp.MissingQuotes = append(resp.MissingQuotes, a.Ticker)
			}
		}
	}
	for _, w := range resp.Warnings {
		log.Printf("oversell: %s sold %v on %s with only %v held", w.Ticker, w.Requested, w.Date, w.Held)
	}
	return resp, nil
}

func (s *PortfolioService) load(ctx context.Context) ([]model.Transaction, []model.Asset, error) {
	txs, err := s.transactionRepo.ListTransactions(ctx)
	if err != nil {
		return nil, nil, err
	}
	previous, err := s.assetRepo.ListAssets(ctx)
	if err != nil {
		return nil, nil, err
	}
	return txs, previous, nil
}

func (s *PortfolioService) broadcast(resp model.PortfolioResponse) {
	if s.hub != nil {
		s.hub.Broadcast(resp)
	}
}

func buildPortfolioResponse(txs []model.Transaction, positions []model.Position, assets []model.Asset) model.PortfolioResponse {
	totals := valuation.Summarize(assets)

	dividends := decimal.Zero
	for _, inc := range valuation.DividendIncome(txs) {
		dividends = dividends.Add(inc.Total)
	}

	resp := model.PortfolioResponse{
		Assets: make([]model.AssetResponse, 0, len(assets)),
		Summary: model.PortfolioSummary{
			TotalEquity:         round(totals.Equity),
			TotalCost:           round(totals.Cost),
			TotalGain:           round(totals.Gain),
			TotalGainPercentage: round(totals.GainPercentage),
			TotalDividends:      round(dividends),
		},
		Allocation: []model.Allocation{},
		Warnings:   toWarningResponses(valuation.Warnings(positions)),
	}
	for _, a := range assets {
		resp.Assets = append(resp.Assets, toAssetResponse(a))
	}
	for _, slice := range valuation.Allocate(assets) {
		resp.Allocation = append(resp.Allocation, model.Allocation{
			Type:       slice.Type,
			Value:      round(slice.Value),
			Percentage: round(slice.Percentage),
		})
	}
	return resp
}
