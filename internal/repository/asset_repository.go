package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// AssetRepository persists the last computed display view of the portfolio.
// The stored view is the "previous assets" input of the next recomputation;
// it is never a source of truth for quantities.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// ListAssets returns the stored view in the order it was saved.
func (r *AssetRepository) ListAssets(ctx context.Context) ([]model.Asset, error) {
	query := `
		SELECT ticker, id, name, type, quantity, average_cost, current_price, last_updated
		FROM asset_snapshot
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_snapshot table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		var assetType, quantity, averageCost, currentPrice string
		var lastUpdated sql.NullString

		if err := rows.Scan(&a.Ticker, &a.ID, &a.Name, &assetType, &quantity, &averageCost, &currentPrice, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan asset_snapshot table results: %w", err)
		}
		a.Type = model.AssetType(assetType)
		if a.Quantity, err = ParseDecimal(quantity); err != nil {
			return nil, err
		}
		if a.AverageCost, err = ParseDecimal(averageCost); err != nil {
			return nil, err
		}
		if a.CurrentPrice, err = ParseDecimal(currentPrice); err != nil {
			return nil, err
		}
		if lastUpdated.Valid && lastUpdated.String != "" {
			if a.LastUpdated, err = ParseTime(lastUpdated.String); err != nil {
				return nil, err
			}
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_snapshot table: %w", err)
	}
	return assets, nil
}

// ReplaceAssets atomically replaces the stored view with assets.
func (r *AssetRepository) ReplaceAssets(ctx context.Context, assets []model.Asset) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM asset_snapshot`); err != nil {
		return fmt.Errorf("failed to clear asset_snapshot table: %w", err)
	}

	query := `
		INSERT INTO asset_snapshot (ticker, id, name, type, quantity, average_cost, current_price, last_updated, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, a := range assets {
		var lastUpdated any
		if !a.LastUpdated.IsZero() {
			lastUpdated = a.LastUpdated.UTC().Format(time.RFC3339)
		}
		_, err = tx.ExecContext(ctx, query,
			a.Ticker,
			a.ID,
			a.Name,
			string(a.Type),
			a.Quantity.String(),
			a.AverageCost.String(),
			a.CurrentPrice.String(),
			lastUpdated,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert asset %s: %w", a.Ticker, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit asset snapshot: %w", err)
	}
	return nil
}
