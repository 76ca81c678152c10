package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
)

// Setting is one stored key/value pair. Encrypted values hold a fernet token.
type Setting struct {
	Key       string
	Value     string
	Encrypted bool
	UpdatedAt time.Time
}

// SettingsRepository provides data access methods for the setting table.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository with the provided database connection.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting returns the setting stored under key.
// Returns apperrors.ErrSettingNotFound when the key is absent.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	var updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, encrypted, updated_at FROM setting WHERE key = ?`, key,
	).Scan(&s.Key, &s.Value, &s.Encrypted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, apperrors.ErrSettingNotFound
	}
	if err != nil {
		return Setting{}, fmt.Errorf("failed to query setting table: %w", err)
	}
	if s.UpdatedAt, err = ParseTime(updatedAt); err != nil {
		return Setting{}, err
	}
	return s, nil
}

// ListSettings returns every stored setting ordered by key.
func (r *SettingsRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, encrypted, updated_at FROM setting ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query setting table: %w", err)
	}
	defer rows.Close()

	settings := []Setting{}
	for rows.Next() {
		var s Setting
		var updatedAt string
		if err := rows.Scan(&s.Key, &s.Value, &s.Encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting table results: %w", err)
		}
		if s.UpdatedAt, err = ParseTime(updatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting table: %w", err)
	}
	return settings, nil
}

// SetSetting inserts or replaces the value stored under key.
func (r *SettingsRepository) SetSetting(ctx context.Context, s Setting) error {
	query := `
		INSERT INTO setting (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.Encrypted, s.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", s.Key, err)
	}
	return nil
}

// DeleteSetting removes key. Deleting an absent key is not an error.
func (r *SettingsRepository) DeleteSetting(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM setting WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
