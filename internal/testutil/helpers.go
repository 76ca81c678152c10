package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/quote"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/secret"
	"github.com/bolsamaster/bolsamaster-backend/internal/service"
	"github.com/bolsamaster/bolsamaster-backend/internal/stream"
)

// FixedNow is the clock used by the portfolio services built here.
var FixedNow = time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

// NewTestTransactionService returns a TransactionService with a mirror outbox.
func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		db,
		repository.NewTransactionRepository(db),
		repository.NewOutboxRepository(db),
	)
}

// NewTestPortfolioService returns a PortfolioService without quote provider
// or subscribers, stamped with FixedNow.
func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return NewTestPortfolioServiceWithQuotes(t, db, nil, nil)
}

// NewTestPortfolioServiceWithQuotes returns a PortfolioService priced by
// provider and broadcasting to hub, stamped with FixedNow.
//
// Example usage:
//
//	quotes := testutil.NewMockQuoteProvider(map[string]float64{"PETR4": 38.5})
//	svc := testutil.NewTestPortfolioServiceWithQuotes(t, db, quotes, nil)
func NewTestPortfolioServiceWithQuotes(t *testing.T, db *sql.DB, provider quote.Provider, hub *stream.Hub[model.PortfolioResponse]) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewTransactionRepository(db),
		repository.NewAssetRepository(db),
		provider,
		hub,
	).WithClock(func() time.Time { return FixedNow })
}

// NewTestSettingsService returns a SettingsService with a fresh encryption key.
func NewTestSettingsService(t *testing.T, db *sql.DB, envTokens map[string]string) *service.SettingsService {
	t.Helper()

	key, err := secret.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate secret key: %v", err)
	}
	box, err := secret.NewBox(key)
	if err != nil {
		t.Fatalf("Failed to create secret box: %v", err)
	}
	return service.NewSettingsService(repository.NewSettingsRepository(db), box, envTokens, "BRL")
}

// NewTestSystemService returns a SystemService with a mirror outbox and the given providers.
func NewTestSystemService(t *testing.T, db *sql.DB, providers ...string) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, repository.NewOutboxRepository(db), providers, map[string]bool{
		"mirror":      true,
		"quote_cache": false,
	})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeTicker generates a B3-shaped ticker that is unlikely to collide with
// real data.
//
// Example usage:
//
//	ticker := testutil.MakeTicker()
//	// Returns: "QXZA3"
func MakeTicker() string {
	return randomLetters(4) + "3"
}

// randomLetters generates a random upper-case string of specified length.
func randomLetters(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
