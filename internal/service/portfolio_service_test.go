package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/stream"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
	"github.com/bolsamaster/bolsamaster-backend/internal/valuation"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestPortfolioService_GetPortfolio tests the holdings view without fresh quotes.
//
// WHY: This is the main screen. Open positions are valued at the last known
// price, falling back to the average cost, and the view is persisted so the
// next computation starts from it.
func TestPortfolioService_GetPortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		resp, err := svc.GetPortfolio(ctx)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if len(resp.Assets) != 0 {
			t.Errorf("Expected no assets, got %d", len(resp.Assets))
		}
		if resp.Summary.TotalEquity != 0 || resp.Summary.TotalGainPercentage != 0 {
			t.Errorf("Expected zero summary, got %+v", resp.Summary)
		}
	})

	t.Run("values at average cost when never quoted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreatePetr4Ledger(t, db)

		resp, err := svc.GetPortfolio(ctx)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if len(resp.Assets) != 1 {
			t.Fatalf("Expected 1 asset, got %d", len(resp.Assets))
		}

		a := resp.Assets[0]
		if a.Quantity != 90 {
			t.Errorf("Expected quantity 90, got %v", a.Quantity)
		}
		if a.TotalCost != 3009 {
			t.Errorf("Expected total cost 3009, got %v", a.TotalCost)
		}
		if a.CurrentPrice != a.AveragePrice {
			t.Errorf("Expected current price to equal average price, got %v and %v", a.CurrentPrice, a.AveragePrice)
		}
		if a.LastUpdated != nil {
			t.Errorf("Expected no last updated time, got %v", a.LastUpdated)
		}
		if resp.Summary.TotalGain != 0 {
			t.Errorf("Expected zero gain, got %v", resp.Summary.TotalGain)
		}
		if a.ID != valuation.DisplayID("PETR4") {
			t.Errorf("Expected display id %s, got %s", valuation.DisplayID("PETR4"), a.ID)
		}

		stored, err := repository.NewAssetRepository(db).ListAssets(ctx)
		if err != nil {
			t.Fatalf("ListAssets() returned unexpected error: %v", err)
		}
		if len(stored) != 1 || stored[0].Ticker != "PETR4" {
			t.Errorf("Expected the view to be persisted, got %+v", stored)
		}
	})

	t.Run("keeps previously known price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreatePetr4Ledger(t, db)
		updated := time.Date(2024, 5, 31, 17, 0, 0, 0, time.UTC)
		testutil.CreateAssetSnapshot(t, db, model.Asset{
			ID:           "kept-id",
			Ticker:       "PETR4",
			Name:         "Petrobras PN",
			Type:         model.AssetStock,
			Quantity:     decimal.NewFromInt(90),
			AverageCost:  decimal.NewFromInt(30),
			CurrentPrice: decimal.RequireFromString("38.5"),
			LastUpdated:  updated,
		})

		resp, err := svc.GetPortfolio(ctx)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}

		a := resp.Assets[0]
		if a.ID != "kept-id" || a.Name != "Petrobras PN" {
			t.Errorf("Expected id and name to be kept, got %s %s", a.ID, a.Name)
		}
		if a.CurrentPrice != 38.5 {
			t.Errorf("Expected current price 38.5, got %v", a.CurrentPrice)
		}
		if a.LastUpdated == nil || !a.LastUpdated.Equal(updated) {
			t.Errorf("Expected last updated %v, got %v", updated, a.LastUpdated)
		}
		if resp.Summary.TotalEquity != 3465 || resp.Summary.TotalGain != 456 {
			t.Errorf("Expected equity 3465 and gain 456, got %+v", resp.Summary)
		}
		if resp.Summary.TotalGainPercentage != 15.15 {
			t.Errorf("Expected gain percentage 15.15, got %v", resp.Summary.TotalGainPercentage)
		}
	})

	t.Run("closed positions are omitted and oversells reported", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreateBuy(t, db, "VALE3", "2024-01-10", 10, 60)
		sell := testutil.CreateSell(t, db, "VALE3", "2024-02-10", 15, 70)
		testutil.CreateBuy(t, db, "HGLG11", "2024-01-15", 5, 160)

		resp, err := svc.GetPortfolio(ctx)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if len(resp.Assets) != 1 || resp.Assets[0].Ticker != "HGLG11" {
			t.Fatalf("Expected only HGLG11, got %+v", resp.Assets)
		}
		if len(resp.Warnings) != 1 {
			t.Fatalf("Expected 1 warning, got %d", len(resp.Warnings))
		}
		w := resp.Warnings[0]
		if w.TransactionID != sell.ID || w.Requested != 15 || w.Held != 10 {
			t.Errorf("Unexpected warning: %+v", w)
		}
		if len(resp.Allocation) != 1 || resp.Allocation[0].Type != model.AssetFII || resp.Allocation[0].Percentage != 100 {
			t.Errorf("Expected 100%% FII allocation, got %+v", resp.Allocation)
		}
	})

	t.Run("dividends are totalled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreateBuy(t, db, "ITSA4", "2024-01-10", 100, 10)
		testutil.CreateDividend(t, db, "ITSA4", "2024-02-10", 12.5)
		testutil.CreateDividend(t, db, "ITSA4", "2024-03-10", 7.5)

		resp, err := svc.GetPortfolio(ctx)
		if err != nil {
			t.Fatalf("GetPortfolio() returned unexpected error: %v", err)
		}
		if resp.Summary.TotalDividends != 20 {
			t.Errorf("Expected total dividends 20, got %v", resp.Summary.TotalDividends)
		}
	})
}

// TestPortfolioService_RefreshQuotes tests applying fresh prices.
//
// WHY: Refresh is the only way prices change. Missing quotes must keep the
// previous price, subscribers must see the new view and provider failures
// must not destroy the stored view.
func TestPortfolioService_RefreshQuotes(t *testing.T) {
	ctx := context.Background()

	t.Run("applies quotes and broadcasts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotes := testutil.NewMockQuoteProvider(map[string]float64{"PETR4": 38.5})
		hub := stream.NewHub[model.PortfolioResponse](1)
		svc := testutil.NewTestPortfolioServiceWithQuotes(t, db, quotes, hub)
		updates, cancel := svc.Subscribe()
		defer cancel()

		testutil.CreatePetr4Ledger(t, db)
		testutil.CreateBuy(t, db, "VALE3", "2024-01-10", 10, 60)

		resp, err := svc.RefreshQuotes(ctx)
		if err != nil {
			t.Fatalf("RefreshQuotes() returned unexpected error: %v", err)
		}

		if len(quotes.Calls) != 1 || len(quotes.Calls[0]) != 2 {
			t.Errorf("Expected one call for both open tickers, got %v", quotes.Calls)
		}
		if len(resp.MissingQuotes) != 1 || resp.MissingQuotes[0] != "VALE3" {
			t.Errorf("Expected VALE3 to be missing, got %v", resp.MissingQuotes)
		}

		petr := resp.Assets[0]
		if petr.CurrentPrice != 38.5 {
			t.Errorf("Expected PETR4 price 38.5, got %v", petr.CurrentPrice)
		}
		if petr.LastUpdated == nil || !petr.LastUpdated.Equal(testutil.FixedNow) {
			t.Errorf("Expected PETR4 last updated %v, got %v", testutil.FixedNow, petr.LastUpdated)
		}
		if vale := resp.Assets[1]; vale.CurrentPrice != 60 || vale.LastUpdated != nil {
			t.Errorf("Expected VALE3 at average cost without update time, got %+v", vale)
		}

		select {
		case got := <-updates:
			if len(got.Assets) != 2 {
				t.Errorf("Expected broadcast with 2 assets, got %d", len(got.Assets))
			}
		default:
			t.Error("Expected a broadcast after refresh")
		}
	})

	t.Run("provider failure keeps stored view", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotes := testutil.NewMockQuoteProvider(nil).WithError(apperrors.ErrProviderUnavailable)
		svc := testutil.NewTestPortfolioServiceWithQuotes(t, db, quotes, nil)
		testutil.CreatePetr4Ledger(t, db)
		testutil.CreateAssetSnapshot(t, db, model.Asset{
			ID: "x", Ticker: "PETR4", Name: "PETR4", Type: model.AssetStock,
			Quantity: decimal.NewFromInt(90), AverageCost: decimal.NewFromInt(30),
			CurrentPrice: decimal.NewFromInt(40),
		})

		_, err := svc.RefreshQuotes(ctx)
		if !errors.Is(err, apperrors.ErrFailedToRefreshQuotes) {
			t.Fatalf("Expected ErrFailedToRefreshQuotes, got %v", err)
		}

		stored, err := repository.NewAssetRepository(db).ListAssets(ctx)
		if err != nil {
			t.Fatalf("ListAssets() returned unexpected error: %v", err)
		}
		if len(stored) != 1 || !stored[0].CurrentPrice.Equal(decimal.NewFromInt(40)) {
			t.Errorf("Expected stored view to be untouched, got %+v", stored)
		}
	})

	t.Run("no provider configured", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		if _, err := svc.RefreshQuotes(ctx); !errors.Is(err, apperrors.ErrProviderUnavailable) {
			t.Errorf("Expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("empty ledger asks no provider", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		quotes := testutil.NewMockQuoteProvider(nil)
		svc := testutil.NewTestPortfolioServiceWithQuotes(t, db, quotes, nil)

		if _, err := svc.RefreshQuotes(ctx); err != nil {
			t.Fatalf("RefreshQuotes() returned unexpected error: %v", err)
		}
		if quotes.CallCount() != 0 {
			t.Errorf("Expected no provider call, got %d", quotes.CallCount())
		}
	})
}

// TestPortfolioService_LedgerChanged tests rebuilding after ledger writes.
//
// WHY: Live clients must see a new entry without waiting for the next quote
// refresh, and the last known prices must survive the rebuild.
func TestPortfolioService_LedgerChanged(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	hub := stream.NewHub[model.PortfolioResponse](1)
	svc := testutil.NewTestPortfolioServiceWithQuotes(t, db, nil, hub)
	txSvc := testutil.NewTestTransactionService(t, db)
	txSvc.Observe(svc)
	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := txSvc.CreateTransactions(ctx, []model.Transaction{
		testutil.NewTransaction("WEGE3").WithQuantity(20).WithUnitPrice(35).Model(),
	}); err != nil {
		t.Fatalf("CreateTransactions() returned unexpected error: %v", err)
	}

	select {
	case got := <-updates:
		if len(got.Assets) != 1 || got.Assets[0].Ticker != "WEGE3" {
			t.Errorf("Expected WEGE3 in broadcast, got %+v", got.Assets)
		}
	default:
		t.Fatal("Expected a broadcast after ledger change")
	}

	stored, err := repository.NewAssetRepository(db).ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets() returned unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("Expected 1 stored asset, got %d", len(stored))
	}
}

// TestPortfolioService_GetHistory tests the equity series.
//
// WHY: The chart shows invested versus equity per trade date; sells must
// reduce the invested amount by the current average cost.
func TestPortfolioService_GetHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		points, err := svc.GetHistory(ctx)
		if err != nil {
			t.Fatalf("GetHistory() returned unexpected error: %v", err)
		}
		if points == nil || len(points) != 0 {
			t.Errorf("Expected empty non-nil series, got %v", points)
		}
	})

	t.Run("one point per trade date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		testutil.CreatePetr4Ledger(t, db)
		testutil.CreateDividend(t, db, "PETR4", "2024-02-20", 50)

		points, err := svc.GetHistory(ctx)
		if err != nil {
			t.Fatalf("GetHistory() returned unexpected error: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("Expected 3 points, got %d", len(points))
		}

		want := []struct {
			label    string
			invested int64
		}{
			{"10/01", 3010},
			{"10/02", 5015},
			{"10/03", 3009},
		}
		for i, w := range want {
			if points[i].Label != w.label || points[i].Invested != w.invested {
				t.Errorf("Point %d: expected %s/%d, got %s/%d", i, w.label, w.invested, points[i].Label, points[i].Invested)
			}
		}
	})
}

// TestPortfolioService_GetDividends tests dividend income per ticker.
//
// WHY: Dividend income is reported net of withheld tax and in order of first
// payment.
func TestPortfolioService_GetDividends(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)
	testutil.CreateDividend(t, db, "MXRF11", "2024-01-15", 10.2)
	testutil.NewTransaction("ITSA4").Dividend(100).WithCosts(15).WithDate(testutil.MustDate(t, "2024-02-01")).Build(t, db)
	testutil.CreateDividend(t, db, "MXRF11", "2024-02-15", 9.8)

	divs, total, err := svc.GetDividends(ctx)
	if err != nil {
		t.Fatalf("GetDividends() returned unexpected error: %v", err)
	}
	if len(divs) != 2 {
		t.Fatalf("Expected 2 tickers, got %d", len(divs))
	}
	if divs[0].Ticker != "MXRF11" || !approx(divs[0].Total, 20) {
		t.Errorf("Expected MXRF11 20, got %+v", divs[0])
	}
	if divs[1].Ticker != "ITSA4" || !approx(divs[1].Total, 85) {
		t.Errorf("Expected ITSA4 85, got %+v", divs[1])
	}
	if !approx(total, 105) {
		t.Errorf("Expected total 105, got %v", total)
	}
}

// TestPortfolioService_GetPosition tests the single-ticker view.
//
// WHY: Closed positions stay inspectable, unknown tickers must be reported
// as not found.
func TestPortfolioService_GetPosition(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)
	testutil.CreatePetr4Ledger(t, db)
	testutil.CreateBuy(t, db, "VALE3", "2024-01-10", 10, 60)
	testutil.CreateSell(t, db, "VALE3", "2024-02-10", 10, 70)

	t.Run("open position", func(t *testing.T) {
		pos, err := svc.GetPosition(ctx, "petr4")
		if err != nil {
			t.Fatalf("GetPosition() returned unexpected error: %v", err)
		}
		if pos.Quantity != 90 || pos.CostBasis != 3009 {
			t.Errorf("Expected 90 units at cost 3009, got %+v", pos)
		}
		if pos.Type != model.AssetStock {
			t.Errorf("Expected type %s, got %s", model.AssetStock, pos.Type)
		}
		if pos.Asset == nil {
			t.Error("Expected asset view for open position")
		}
	})

	t.Run("closed position", func(t *testing.T) {
		pos, err := svc.GetPosition(ctx, "VALE3")
		if err != nil {
			t.Fatalf("GetPosition() returned unexpected error: %v", err)
		}
		if pos.Quantity != 0 || pos.AverageCost != 0 {
			t.Errorf("Expected closed position, got %+v", pos)
		}
		if pos.Asset != nil {
			t.Errorf("Expected no asset view for closed position, got %+v", pos.Asset)
		}
	})

	t.Run("unknown ticker", func(t *testing.T) {
		if _, err := svc.GetPosition(ctx, testutil.MakeTicker()); !errors.Is(err, apperrors.ErrPositionNotFound) {
			t.Errorf("Expected ErrPositionNotFound, got %v", err)
		}
	})
}
