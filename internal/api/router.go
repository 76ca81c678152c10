package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/handlers"
	custommiddleware "github.com/bolsamaster/bolsamaster-backend/internal/api/middleware"
	"github.com/bolsamaster/bolsamaster-backend/internal/config"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
)

// Manual refreshes hit paid quote APIs.
const (
	refreshEvery = 10 * time.Second
	refreshBurst = 3
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	transactionService *service.TransactionService,
	portfolioService *service.PortfolioService,
	settingsService *service.SettingsService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(transactionService)
			r.Get("/", transactionHandler.AllTransactions)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Post("/import", transactionHandler.ImportTransactions)
			r.Get("/tickers", transactionHandler.Tickers)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			streamHandler := handlers.NewStreamHandler(portfolioService, cfg.CORS.AllowedOrigins)
			limiter := custommiddleware.NewRateLimiter(rate.Every(refreshEvery), refreshBurst)

			r.Get("/", portfolioHandler.Portfolio)
			r.With(limiter.Middleware).Post("/refresh", portfolioHandler.Refresh)
			r.Get("/history", portfolioHandler.History)
			r.Get("/dividends", portfolioHandler.Dividends)
			r.Get("/ws", streamHandler.Stream)

			r.With(custommiddleware.ValidateTickerMiddleware).Get("/{ticker}", portfolioHandler.Position)
		})

		r.Route("/settings", func(r chi.Router) {
			settingsHandler := handlers.NewSettingsHandler(settingsService)
			r.Get("/", settingsHandler.Settings)
			r.Put("/token/{provider}", settingsHandler.SetProviderToken)
		})
	})

	return r
}
