package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
	"github.com/bolsamaster/bolsamaster-backend/internal/api/response"
	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

// SettingsHandler handles HTTP requests for provider settings.
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// Settings handles GET requests listing which quote providers have a token.
// Token values are never returned.
//
// Endpoint: GET /api/settings
// Response: 200 OK with SettingsResponse
// Error: 500 Internal Server Error if settings cannot be read
func (h *SettingsHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.ConfiguredProviders(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSettings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, settings)
}

// SetProviderToken handles PUT requests storing an encrypted provider token.
// An empty token removes the stored one.
//
// Endpoint: PUT /api/settings/token/{provider}
// Request Body: SetProviderTokenRequest (token)
// Response: 204 No Content
// Error: 400 Bad Request if the provider is unknown or the token is invalid
// Error: 503 Service Unavailable if no SECRET_KEY is configured
// Error: 500 Internal Server Error if the token cannot be stored
func (h *SettingsHandler) SetProviderToken(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	req, err := parseJSON[request.SetProviderTokenRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSetProviderToken(provider, req); err != nil {
		response.RespondValidationError(w, err)
		return
	}

	if err := h.settingsService.SetProviderToken(r.Context(), provider, req.Token); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnknownProvider):
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrUnknownProvider.Error(), provider)
		case errors.Is(err, apperrors.ErrMissingSecretKey):
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrMissingSecretKey.Error(), "set SECRET_KEY to store tokens")
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to store token", err.Error())
		}
		return
	}

	response.RespondNoContent(w)
}
