package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/response"
	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

// ValidateTickerMiddleware validates the ticker URL parameter.
// Returns 400 Bad Request if the ticker is missing or malformed.
func ValidateTickerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateTicker(chi.URLParam(r, "ticker")); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid ticker", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
