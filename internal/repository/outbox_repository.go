package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outbox operations.
const (
	OutboxUpsert = "upsert"
	OutboxDelete = "delete"
)

// OutboxEntry is a pending ledger change waiting to be pushed to the mirror.
type OutboxEntry struct {
	ID            int64
	Op            string
	TransactionID string
	Payload       string
	Attempts      int
	LastError     string
	CreatedAt     time.Time
}

// OutboxRepository provides data access methods for the sync_outbox table.
type OutboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewOutboxRepository creates a new OutboxRepository with the provided database connection.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// WithTx returns a new OutboxRepository scoped to the provided transaction.
func (r *OutboxRepository) WithTx(tx *sql.Tx) *OutboxRepository {
	return &OutboxRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *OutboxRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Enqueue records a pending operation.
func (r *OutboxRepository) Enqueue(ctx context.Context, op, transactionID, payload string) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO sync_outbox (op, transaction_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		op, transactionID, payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s of %s: %w", op, transactionID, err)
	}
	return nil
}

// Pending returns up to limit entries in insertion order.
func (r *OutboxRepository) Pending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, op, transaction_id, payload, attempts, last_error, created_at
		FROM sync_outbox
		ORDER BY id ASC
		LIMIT ?
	`
	rows, err := r.getQuerier().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync_outbox table: %w", err)
	}
	defer rows.Close()

	entries := []OutboxEntry{}
	for rows.Next() {
		var e OutboxEntry
		var lastError sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Op, &e.TransactionID, &e.Payload, &e.Attempts, &lastError, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync_outbox table results: %w", err)
		}
		e.LastError = lastError.String
		if e.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync_outbox table: %w", err)
	}
	return entries, nil
}

// Ack removes a pushed entry.
func (r *OutboxRepository) Ack(ctx context.Context, id int64) error {
	if _, err := r.getQuerier().ExecContext(ctx, `DELETE FROM sync_outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to ack outbox entry %d: %w", id, err)
	}
	return nil
}

// Fail records a failed push attempt; the entry stays queued.
func (r *OutboxRepository) Fail(ctx context.Context, id int64, cause error) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`UPDATE sync_outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		cause.Error(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure %d: %w", id, err)
	}
	return nil
}

// Count returns the number of queued entries.
func (r *OutboxRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_outbox`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync_outbox table: %w", err)
	}
	return n, nil
}
