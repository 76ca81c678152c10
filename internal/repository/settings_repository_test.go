package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
)

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSettingsRepository(db)

		_, err := repo.GetSetting(ctx, "token.brapi")
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("set then overwrite", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSettingsRepository(db)

		if err := repo.SetSetting(ctx, repository.Setting{Key: "token.brapi", Value: "first", Encrypted: true}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := repo.SetSetting(ctx, repository.Setting{Key: "token.brapi", Value: "second", Encrypted: false}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		got, err := repo.GetSetting(ctx, "token.brapi")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got.Value != "second" {
			t.Errorf("Expected value second, got %s", got.Value)
		}
		if got.Encrypted {
			t.Error("Expected encrypted flag to be overwritten")
		}
		if got.UpdatedAt.IsZero() {
			t.Error("Expected updated_at to be set")
		}
	})

	t.Run("list is sorted and delete removes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewSettingsRepository(db)

		for _, key := range []string{"token.coingecko", "token.brapi"} {
			if err := repo.SetSetting(ctx, repository.Setting{Key: key, Value: "v"}); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
		}

		settings, err := repo.ListSettings(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(settings) != 2 || settings[0].Key != "token.brapi" {
			t.Errorf("Expected sorted settings, got %+v", settings)
		}

		if err := repo.DeleteSetting(ctx, "token.brapi"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := repo.DeleteSetting(ctx, "token.brapi"); err != nil {
			t.Errorf("Expected deleting absent key to succeed, got %v", err)
		}
		if _, err := repo.GetSetting(ctx, "token.brapi"); !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected ErrSettingNotFound after delete, got %v", err)
		}
	})
}
