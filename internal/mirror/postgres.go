// Package mirror keeps an optional remote Postgres copy of the ledger.
//
// The local SQLite ledger stays authoritative. Local writes are queued in the
// sync outbox and pushed by SyncService; Pull restores remote-only entries
// onto a fresh device. Concurrent writers are not reconciled: the last push wins.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// Config holds the remote database configuration.
type Config struct {
	URL             string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS ledger_transaction (
	id          TEXT PRIMARY KEY,
	ledger_seq  BIGINT NOT NULL,
	date        DATE NOT NULL,
	ticker      TEXT NOT NULL,
	kind        TEXT NOT NULL CHECK (kind IN ('BUY', 'SELL', 'DIVIDEND')),
	quantity    NUMERIC NOT NULL,
	unit_price  NUMERIC NOT NULL,
	costs       NUMERIC NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_ledger_transaction_date ON ledger_transaction (date, ledger_seq);
`

// PostgresStore is the remote copy of the ledger.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Open connects to the remote database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mirror database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	} else {
		config.MaxConns = 4
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	} else {
		config.MaxConnLifetime = time.Hour
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create mirror connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping mirror database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the remote table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create mirror schema: %w", err)
	}
	return nil
}

// UpsertTransaction inserts t or overwrites the remote entry with the same ID.
func (s *PostgresStore) UpsertTransaction(ctx context.Context, t model.Transaction) error {
	query := `
		INSERT INTO ledger_transaction (id, ledger_seq, date, ticker, kind, quantity, unit_price, costs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			ledger_seq = EXCLUDED.ledger_seq,
			date = EXCLUDED.date,
			ticker = EXCLUDED.ticker,
			kind = EXCLUDED.kind,
			quantity = EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			costs = EXCLUDED.costs,
			created_at = EXCLUDED.created_at,
			updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query,
		t.ID,
		t.Seq,
		t.Date,
		t.Ticker,
		string(t.Kind),
		t.Quantity.String(),
		t.UnitPrice.String(),
		t.Costs.String(),
		t.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mirror transaction %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTransaction removes the remote entry. A missing entry is not an error.
func (s *PostgresStore) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM ledger_transaction WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete mirror transaction %s: %w", id, err)
	}
	return nil
}

// ListTransactions returns the remote ledger ordered by date, then ledger order.
func (s *PostgresStore) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	query := `
		SELECT id, ledger_seq, to_char(date, 'YYYY-MM-DD'), ticker, kind,
		       quantity::text, unit_price::text, costs::text, created_at
		FROM ledger_transaction
		ORDER BY date ASC, ledger_seq ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirror ledger: %w", err)
	}

	txs, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to scan mirror ledger: %w", err)
	}
	return txs, nil
}

func scanTransaction(row pgx.CollectableRow) (model.Transaction, error) {
	var (
		t                      model.Transaction
		date, kind             string
		quantity, price, costs string
	)
	if err := row.Scan(&t.ID, &t.Seq, &date, &t.Ticker, &kind, &quantity, &price, &costs, &t.CreatedAt); err != nil {
		return model.Transaction{}, err
	}

	var err error
	if t.Date, err = time.Parse("2006-01-02", date); err != nil {
		return model.Transaction{}, fmt.Errorf("invalid mirror date %q: %w", date, err)
	}
	t.Kind = model.TransactionKind(kind)
	if !t.Kind.Valid() {
		return model.Transaction{}, fmt.Errorf("invalid mirror kind %q", kind)
	}
	t.Quantity, err = decimal.NewFromString(quantity)
	if err == nil {
		t.UnitPrice, err = decimal.NewFromString(price)
	}
	if err == nil {
		t.Costs, err = decimal.NewFromString(costs)
	}
	if err != nil {
		return model.Transaction{}, errors.Join(fmt.Errorf("invalid mirror decimal in %s", t.ID), err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
