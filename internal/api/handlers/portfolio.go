package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/response"
	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
)

// PortfolioHandler handles HTTP requests for the derived portfolio views.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// DividendsResponse lists lifetime dividend income per ticker.
type DividendsResponse struct {
	Dividends []model.DividendResponse `json:"dividends"`
	Total     float64                  `json:"total"`
}

// Portfolio handles GET requests for the open positions and their summary.
// Prices are the last stored quotes; no provider is called.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with PortfolioResponse
// Error: 500 Internal Server Error if the portfolio cannot be built
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioService.GetPortfolio(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolio.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// Refresh handles POST requests to fetch fresh quotes for every open position.
// Tickers no provider could price keep their previous price and are listed
// in missingQuotes.
//
// Endpoint: POST /api/portfolio/refresh
// Response: 200 OK with PortfolioResponse
// Error: 429 Too Many Requests if refreshes come too fast (rate limited by middleware)
// Error: 503 Service Unavailable if no provider returned any price
// Error: 500 Internal Server Error if the portfolio cannot be rebuilt
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioService.RefreshQuotes(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrProviderUnavailable) || errors.Is(err, apperrors.ErrFailedToRefreshQuotes) {
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrProviderUnavailable.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolio.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// History handles GET requests for the invested-vs-equity series, one point
// per distinct ledger date.
//
// Endpoint: GET /api/portfolio/history
// Response: 200 OK with array of HistoryPoint
// Error: 500 Internal Server Error if the series cannot be built
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	points, err := h.portfolioService.GetHistory(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolioHistory.Error(), err.Error())
		return
	}
	if points == nil {
		points = []model.HistoryPoint{}
	}

	response.RespondJSON(w, http.StatusOK, points)
}

// Dividends handles GET requests for dividend income per ticker.
//
// Endpoint: GET /api/portfolio/dividends
// Response: 200 OK with DividendsResponse
// Error: 500 Internal Server Error if the ledger cannot be read
func (h *PortfolioHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	dividends, total, err := h.portfolioService.GetDividends(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetDividends.Error(), err.Error())
		return
	}
	if dividends == nil {
		dividends = []model.DividendResponse{}
	}

	response.RespondJSON(w, http.StatusOK, DividendsResponse{Dividends: dividends, Total: total})
}

// Position handles GET requests for a single ticker, including closed positions.
//
// Endpoint: GET /api/portfolio/{ticker}
// Response: 200 OK with PositionResponse
// Error: 400 Bad Request if the ticker is malformed (validated by middleware)
// Error: 404 Not Found if the ledger has no entry for the ticker
// Error: 500 Internal Server Error if the position cannot be built
func (h *PortfolioHandler) Position(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	position, err := h.portfolioService.GetPosition(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, apperrors.ErrPositionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPositionNotFound.Error(), ticker)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolio.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, position)
}
