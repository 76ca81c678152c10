package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/secret"
	"github.com/bolsamaster/bolsamaster-backend/internal/validation"
)

const tokenKeyPrefix = "provider_token:"

// SettingsService manages stored quote provider tokens.
// Tokens given through the environment take precedence over stored ones.
type SettingsService struct {
	settingsRepo      *repository.SettingsRepository
	box               *secret.Box
	envTokens         map[string]string
	reportingCurrency string
}

// NewSettingsService creates a new SettingsService.
//
// Parameters:
//   - settingsRepo: storage for encrypted tokens
//   - box: encrypts tokens at rest; a disabled box rejects SetProviderToken
//   - envTokens: tokens from the environment keyed by provider, empty values are ignored
//   - reportingCurrency: the currency every value is reported in
func NewSettingsService(
	settingsRepo *repository.SettingsRepository,
	box *secret.Box,
	envTokens map[string]string,
	reportingCurrency string,
) *SettingsService {
	env := make(map[string]string, len(envTokens))
	for provider, token := range envTokens {
		if token != "" {
			env[provider] = token
		}
	}
	return &SettingsService{
		settingsRepo:      settingsRepo,
		box:               box,
		envTokens:         env,
		reportingCurrency: reportingCurrency,
	}
}

// SetProviderToken encrypts and stores token for provider. An empty token
// removes the stored one.
// Returns apperrors.ErrUnknownProvider for providers that take no token and
// apperrors.ErrMissingSecretKey when no SECRET_KEY is configured.
func (s *SettingsService) SetProviderToken(ctx context.Context, provider, token string) error {
	if !validation.TokenProviders[provider] {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownProvider, provider)
	}
	if token == "" {
		return s.settingsRepo.DeleteSetting(ctx, tokenKeyPrefix+provider)
	}

	encrypted, err := s.box.Encrypt(token)
	if err != nil {
		return err
	}
	return s.settingsRepo.SetSetting(ctx, repository.Setting{
		Key:       tokenKeyPrefix + provider,
		Value:     encrypted,
		Encrypted: true,
	})
}

// ProviderToken returns the token to use for provider, or "" when none is
// configured. The environment wins over the stored token.
func (s *SettingsService) ProviderToken(ctx context.Context, provider string) (string, error) {
	if token, ok := s.envTokens[provider]; ok {
		return token, nil
	}

	setting, err := s.settingsRepo.GetSetting(ctx, tokenKeyPrefix+provider)
	if errors.Is(err, apperrors.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !setting.Encrypted {
		return setting.Value, nil
	}
	return s.box.Decrypt(setting.Value)
}

// TokenSource returns a func resolving the token of provider on every call,
// so tokens changed at runtime are picked up by the next fetch.
func (s *SettingsService) TokenSource(provider string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return s.ProviderToken(ctx, provider)
	}
}

// ConfiguredProviders reports, for every provider accepting a token, whether
// one is configured and where it comes from.
func (s *SettingsService) ConfiguredProviders(ctx context.Context) (model.SettingsResponse, error) {
	stored, err := s.settingsRepo.ListSettings(ctx)
	if err != nil {
		return model.SettingsResponse{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSettings, err)
	}
	storedKeys := make(map[string]bool, len(stored))
	for _, st := range stored {
		storedKeys[st.Key] = true
	}

	resp := model.SettingsResponse{
		ReportingCurrency: s.reportingCurrency,
		Encryption:        s.box.Enabled(),
	}
	for _, provider := range slices.Sorted(maps.Keys(validation.TokenProviders)) {
		ps := model.ProviderSetting{Provider: provider}
		switch {
		case s.envTokens[provider] != "":
			ps.Configured, ps.Source = true, "env"
		case storedKeys[tokenKeyPrefix+provider]:
			ps.Configured, ps.Source = true, "stored"
		}
		resp.Providers = append(resp.Providers, ps)
	}
	return resp, nil
}
