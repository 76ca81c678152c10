package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// It is the ledger: entries are appended and deleted, never updated.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionColumns = `seq, id, date, ticker, kind, quantity, unit_price, costs, created_at`

// ListTransactions retrieves the full ledger in a single query.
// Entries are ordered by date and then by insertion order, so entries sharing
// a date keep their ledger order.
//
// Returns an empty slice if the ledger is empty.
func (r *TransactionRepository) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		ORDER BY date ASC, seq ASC
	`
	return r.query(ctx, query)
}

// ListTransactionsByTicker retrieves the ledger entries of one ticker, ordered as ListTransactions.
func (r *TransactionRepository) ListTransactionsByTicker(ctx context.Context, ticker string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE ticker = ?
		ORDER BY date ASC, seq ASC
	`
	return r.query(ctx, query, ticker)
}

// GetTransaction retrieves a single ledger entry by its ID.
// Returns apperrors.ErrTransactionNotFound when no entry matches.
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM "transaction"
		WHERE id = ?
	`
	t, err := scanTransaction(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// InsertTransaction appends an entry to the ledger and sets its Seq.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO "transaction" (id, date, ticker, kind, quantity, unit_price, costs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.Date.Format("2006-01-02"),
		t.Ticker,
		string(t.Kind),
		t.Quantity.String(),
		t.UnitPrice.String(),
		t.Costs.String(),
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction sequence: %w", err)
	}
	t.Seq = seq
	return nil
}

// InsertTransactions appends several entries atomically, in slice order.
// When the repository is already scoped to a transaction the caller owns commit.
func (r *TransactionRepository) InsertTransactions(ctx context.Context, ts []model.Transaction) (err error) {
	if r.tx != nil {
		for i := range ts {
			if err := r.InsertTransaction(ctx, &ts[i]); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.WithTx(tx).InsertTransactions(ctx, ts); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// DeleteTransaction removes a ledger entry.
// Returns apperrors.ErrTransactionNotFound when no entry matches.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM "transaction" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// ListTickers returns the distinct tickers in the ledger starting with prefix, sorted alphabetically.
func (r *TransactionRepository) ListTickers(ctx context.Context, prefix string) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM "transaction"
		WHERE ticker LIKE ? ESCAPE '\'
		ORDER BY ticker ASC
	`
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToUpper(prefix))

	rows, err := r.getQuerier().QueryContext(ctx, query, escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return tickers, nil
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}
	return transactions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.Transaction, error) {
	var t model.Transaction
	var dateStr, kind, quantity, unitPrice, costs, createdAtStr string

	err := row.Scan(
		&t.Seq,
		&t.ID,
		&dateStr,
		&t.Ticker,
		&kind,
		&quantity,
		&unitPrice,
		&costs,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return t, err
	}
	if err != nil {
		return t, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.Kind = model.TransactionKind(kind)
	if t.Date, err = ParseTime(dateStr); err != nil {
		return t, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return t, err
	}
	if t.Quantity, err = ParseDecimal(quantity); err != nil {
		return t, err
	}
	if t.UnitPrice, err = ParseDecimal(unitPrice); err != nil {
		return t, err
	}
	if t.Costs, err = ParseDecimal(costs); err != nil {
		return t, err
	}
	return t, nil
}
