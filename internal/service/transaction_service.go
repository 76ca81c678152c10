package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/request"
	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/importer"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
)

// maxSuggestions limits the ticker suggestions returned by Tickers.
const maxSuggestions = 6

// commonTickers are offered as suggestions even before they appear in the ledger.
var commonTickers = []string{
	"PETR4", "PETR3", "VALE3", "ITUB4", "BBDC4", "BBDC3", "ABEV3", "BBAS3", "ITSA4", "WEGE3",
	"MGLU3", "B3SA3", "JBSS3", "RENT3", "SUZB3", "EQTL3", "LREN3", "GGBR4", "RDOR3", "RADL3",
	"HGLG11", "KNRI11", "VISC11", "MXRF11", "XPML11", "BTLG11", "XPLG11", "HGRU11", "RECR11", "IRDM11",
	"BOVA11", "IVVB11", "SMAL11", "HASH11", "BTC", "ETH", "SOL",
}

// LedgerObserver is notified after every committed ledger change.
type LedgerObserver interface {
	LedgerChanged(ctx context.Context)
}

// TransactionService handles ledger business logic operations.
type TransactionService struct {
	db              *sql.DB
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
	observers       []LedgerObserver
}

// NewTransactionService creates a new TransactionService with the provided repository dependencies.
// outboxRepo may be nil when no remote mirror is configured.
func NewTransactionService(
	db *sql.DB,
	transactionRepo *repository.TransactionRepository,
	outboxRepo *repository.OutboxRepository,
) *TransactionService {
	return &TransactionService{
		db:              db,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
	}
}

// Observe registers o to be notified after ledger writes.
func (s *TransactionService) Observe(o LedgerObserver) {
	s.observers = append(s.observers, o)
}

// ListTransactions returns the full ledger in ledger order.
func (s *TransactionService) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.transactionRepo.ListTransactions(ctx)
}

// GetTransaction retrieves a single ledger entry by its ID.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, id)
}

// CreateTransaction appends a validated request to the ledger.
//
// The ticker is normalised to upper case, the entry gets a new UUID and a
// DIVIDEND without quantity is recorded with quantity 1.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (model.Transaction, error) {
	t, err := fromRequest(req)
	if err != nil {
		return model.Transaction{}, err
	}

	created, err := s.CreateTransactions(ctx, []model.Transaction{t})
	if err != nil {
		return model.Transaction{}, err
	}
	return created[0], nil
}

// CreateTransactions appends a batch of entries in a single SQL transaction.
// Either every entry is stored or none is. Entries without an ID get a new UUID.
func (s *TransactionService) CreateTransactions(ctx context.Context, ts []model.Transaction) (created []model.Transaction, err error) {
	if len(ts) == 0 {
		return nil, nil
	}

	created = make([]model.Transaction, len(ts))
	now := time.Now().UTC()
	for i, t := range ts {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
		created[i] = t
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repo := s.transactionRepo.WithTx(tx)
	for i := range created {
		if err = repo.InsertTransaction(ctx, &created[i]); err != nil {
			return nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		if err = s.enqueue(ctx, tx, repository.OutboxUpsert, created[i]); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notify(ctx)
	return created, nil
}

// DeleteTransaction removes a ledger entry.
// Returns apperrors.ErrTransactionNotFound when no entry has the given ID.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.transactionRepo.WithTx(tx).DeleteTransaction(ctx, id); err != nil {
		return err
	}
	if err = s.enqueue(ctx, tx, repository.OutboxDelete, model.Transaction{ID: id}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notify(ctx)
	return nil
}

// ImportResult is the outcome of ImportTransactions.
type ImportResult struct {
	Imported []model.Transaction
	Rejected []importer.Rejection
}

// ImportTransactions extracts candidate rows from an uploaded file and
// records the valid ones as BUY entries dated on date.
//
// Parameters:
//   - filename: selects the extractor by extension
//   - r: the file contents
//   - date: the import day stamped on every entry
//
// Returns apperrors.ErrUnsupportedFormat for unknown extensions and
// apperrors.ErrNoCandidates when no row passed validation. Rejected rows are
// reported alongside the imported ones.
func (s *TransactionService) ImportTransactions(ctx context.Context, filename string, r io.Reader, date time.Time) (ImportResult, error) {
	extractor, err := importer.ExtractorFor(filename)
	if err != nil {
		return ImportResult{}, err
	}

	candidates, err := extractor.Extract(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToImportTransactions, err)
	}

	valid, rejected := importer.Partition(candidates)
	result := ImportResult{Rejected: rejected}
	if len(valid) == 0 {
		return result, apperrors.ErrNoCandidates
	}

	entries := importer.ToTransactions(valid, date, func() string { return uuid.New().String() })
	created, err := s.CreateTransactions(ctx, entries)
	if err != nil {
		return result, fmt.Errorf("%w: %w", apperrors.ErrFailedToImportTransactions, err)
	}
	result.Imported = created

	log.Printf("imported %d entries from %s (%s), rejected %d", len(created), filename, extractor.Name(), len(rejected))
	return result, nil
}

// Tickers suggests tickers starting with prefix. Tickers already in the
// ledger come first, then well-known B3 and crypto tickers.
// At most six suggestions are returned.
func (s *TransactionService) Tickers(ctx context.Context, prefix string) ([]string, error) {
	upper := strings.ToUpper(strings.TrimSpace(prefix))
	existing, err := s.transactionRepo.ListTickers(ctx, upper)
	if err != nil {
		return nil, err
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, t := range slices.Concat(existing, commonTickers) {
		if len(suggestions) == maxSuggestions {
			break
		}
		if strings.HasPrefix(t, upper) && !slices.Contains(suggestions, t) {
			suggestions = append(suggestions, t)
		}
	}
	return suggestions, nil
}

func (s *TransactionService) enqueue(ctx context.Context, tx *sql.Tx, op string, t model.Transaction) error {
	if s.outboxRepo == nil {
		return nil
	}

	payload := ""
	if op == repository.OutboxUpsert {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode outbox payload: %w", err)
		}
		payload = string(b)
	}
	return s.outboxRepo.WithTx(tx).Enqueue(ctx, op, t.ID, payload)
}

func (s *TransactionService) notify(ctx context.Context) {
	for _, o := range s.observers {
		o.LedgerChanged(ctx)
	}
}

func fromRequest(req request.CreateTransactionRequest) (model.Transaction, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	kind := model.TransactionKind(strings.ToUpper(strings.TrimSpace(req.Type)))
	quantity := req.Quantity
	if kind == model.KindDividend && quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	return model.Transaction{
		Date:      date,
		Ticker:    strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Kind:      kind,
		Quantity:  quantity,
		UnitPrice: req.Price,
		Costs:     req.Costs,
	}, nil
}
