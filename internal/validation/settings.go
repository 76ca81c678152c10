package validation

import (
	"fmt"
	"strings"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
)

// TokenProviders lists the quote providers that accept an API token.
var TokenProviders = map[string]bool{
	"brapi": true, "coingecko": true,
}

// ValidateSetProviderToken validates a token update for provider.
// Tokens must not contain whitespace and are limited to 512 characters.
func ValidateSetProviderToken(provider string, req request.SetProviderTokenRequest) error {
	errors := make(map[string]string)

	if !TokenProviders[provider] {
		errors["provider"] = fmt.Sprintf("unknown provider: %s", provider)
	}
	if strings.ContainsAny(req.Token, " \t\r\n") {
		errors["token"] = "token must not contain whitespace"
	}
	if len(req.Token) > 512 {
		errors["token"] = "token is too long"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
