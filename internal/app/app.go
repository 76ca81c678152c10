// Package app wires configuration, storage, quote providers and services
// together. Both the HTTP server and the CLI start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/database"
	"github.com/bolsamaster/bolsamaster-backend/internal/mirror"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/quote"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/secret"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
	"github.com/bolsamaster/bolsamaster-backend/internal/stream"
	"github.com/bolsamaster/bolsamaster-backend/internal/yahoo"
)

// streamBuffer is the number of pending updates kept per stream subscriber.
const streamBuffer = 4

// App holds the wired services.
type App struct {
	DB           *sql.DB
	Hub          *stream.Hub[model.PortfolioResponse]
	Transactions *service.TransactionService
	Portfolio    *service.PortfolioService
	Settings     *service.SettingsService
	System       *service.SystemService

	// Sync is nil when no mirror is configured.
	Sync *mirror.SyncService

	closers []func()
}

// New opens the ledger, applies pending migrations and builds every service.
//
// Optional parts follow the configuration:
//   - Redis quote cache when REDIS_ADDR is set
//   - Postgres mirror and its outbox when MIRROR_DATABASE_URL is set
//
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() { db.Close() })
	log.Printf("Connected to database: %s", cfg.Database.Path)

	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}

	box, err := secret.NewBox(cfg.Security.SecretKey)
	if err != nil {
		return nil, err
	}
	if !box.Enabled() {
		log.Println("SECRET_KEY not set, provider tokens can only come from the environment")
	}

	transactionRepo := repository.NewTransactionRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	a.Settings = service.NewSettingsService(settingsRepo, box, map[string]string{
		"brapi":     cfg.Quote.BrapiToken,
		"coingecko": cfg.Quote.CoinGeckoAPIKey,
	}, cfg.Quote.ReportingCurrency)

	provider, providers, cached := a.quoteProvider(ctx, cfg)

	var (
		outboxRepo *repository.OutboxRepository
		store      *mirror.PostgresStore
	)
	if cfg.Mirror.DatabaseURL != "" {
		store, err = mirror.Open(ctx, mirror.Config{URL: cfg.Mirror.DatabaseURL})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		outboxRepo = repository.NewOutboxRepository(db)
		log.Println("Remote mirror enabled")
	}

	a.Hub = stream.NewHub[model.PortfolioResponse](streamBuffer)
	a.closers = append(a.closers, a.Hub.Close)

	a.Transactions = service.NewTransactionService(db, transactionRepo, outboxRepo)
	a.Portfolio = service.NewPortfolioService(transactionRepo, assetRepo, provider, a.Hub)
	a.Transactions.Observe(a.Portfolio)

	if store != nil {
		a.Sync = mirror.NewSyncService(transactionRepo, outboxRepo, store)
		a.Sync.Observe(a.Portfolio)
	}

	a.System = service.NewSystemService(db, outboxRepo, providers, map[string]bool{
		"mirror":      store != nil,
		"quote_cache": cached,
		"encryption":  box.Enabled(),
	})
	return a, nil
}

// quoteProvider builds the provider chain brapi, coingecko, yahoo. Each
// provider gets its own limiter. The chain is wrapped in a Redis cache when
// one is configured. Also returns the provider names in chain order.
func (a *App) quoteProvider(ctx context.Context, cfg *config.Config) (quote.Provider, []string, bool) {
	limiter := func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(cfg.Quote.RateLimit), cfg.Quote.Burst)
	}

	chain := quote.NewChain(
		quote.NewBrapiProvider(quote.BrapiConfig{
			Token:     a.Settings.TokenSource("brapi"),
			Limiter:   limiter(),
			BatchSize: cfg.Quote.BatchSize,
		}),
		quote.NewCoinGeckoProvider(quote.CoinGeckoConfig{
			APIKey:   a.Settings.TokenSource("coingecko"),
			Currency: cfg.Quote.ReportingCurrency,
			Limiter:  limiter(),
		}),
		quote.NewYahooProvider(yahoo.NewFinanceClient(), cfg.Quote.ReportingCurrency, limiter()),
	)

	if cfg.Cache.RedisAddr == "" {
		return chain, chain.Providers(), false
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
	})
	a.closers = append(a.closers, func() { client.Close() })
	cache := quote.NewRedisCache(client, cfg.Quote.ReportingCurrency, cfg.Cache.TTL)
	if err := cache.Ping(ctx); err != nil {
		// Reads and writes fall through to the providers while Redis is down.
		log.Printf("Quote cache unreachable: %v", err)
	}
	log.Printf("Quote cache enabled: %s (ttl %s)", cfg.Cache.RedisAddr, cfg.Cache.TTL)
	return quote.NewCachedProvider(chain, cache), chain.Providers(), true
}

// SyncNow pulls missing remote entries, then pushes local changes.
// Returns apperrors.ErrMirrorDisabled when no mirror is configured.
func (a *App) SyncNow(ctx context.Context) (pulled, pushed int, err error) {
	if a.Sync == nil {
		return 0, 0, apperrors.ErrMirrorDisabled
	}
	pulled, err = a.Sync.Pull(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to pull mirror: %w", err)
	}
	pushed, err = a.Sync.Push(ctx)
	return pulled, pushed, err
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
