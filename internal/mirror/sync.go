package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
)

// pushBatch is the number of outbox entries read per round trip.
const pushBatch = 100

// Store is the remote side of the mirror.
type Store interface {
	UpsertTransaction(ctx context.Context, t model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
}

// LedgerObserver is notified after Pull changed the local ledger.
type LedgerObserver interface {
	LedgerChanged(ctx context.Context)
}

// SyncService moves ledger changes between the local ledger and the remote store.
type SyncService struct {
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
	remote          Store
	observers       []LedgerObserver

	mu sync.Mutex
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	transactionRepo *repository.TransactionRepository,
	outboxRepo *repository.OutboxRepository,
	remote Store,
) *SyncService {
	return &SyncService{
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		remote:          remote,
	}
}

// Observe registers o to be notified when Pull inserted entries.
func (s *SyncService) Observe(o LedgerObserver) {
	s.observers = append(s.observers, o)
}

// Push drains the outbox in order.
//
// Each entry is removed once the remote store accepted it. The first failure
// is recorded on its entry and ends the pass; the entry and everything
// queued after it stay in the outbox for the next run.
//
// Returns the number of entries pushed.
func (s *SyncService) Push(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pushed := 0
	for {
		entries, err := s.outboxRepo.Pending(ctx, pushBatch)
		if err != nil {
			return pushed, err
		}
		if len(entries) == 0 {
			return pushed, nil
		}

		for _, e := range entries {
			if err := s.apply(ctx, e); err != nil {
				if failErr := s.outboxRepo.Fail(ctx, e.ID, err); failErr != nil {
					log.Printf("mirror: %v", failErr)
				}
				return pushed, fmt.Errorf("failed to push %s of %s: %w", e.Op, e.TransactionID, err)
			}
			if err := s.outboxRepo.Ack(ctx, e.ID); err != nil {
				return pushed, err
			}
			pushed++
		}
	}
}

// Pull copies remote entries missing from the local ledger, in remote ledger
// order. Local entries are never modified or removed.
//
// Returns the number of entries inserted locally.
func (s *SyncService) Pull(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remote, err := s.remote.ListTransactions(ctx)
	if err != nil {
		return 0, err
	}
	local, err := s.transactionRepo.ListTransactions(ctx)
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(local))
	for _, t := range local {
		known[t.ID] = true
	}

	var missing []model.Transaction
	for _, t := range remote {
		if !known[t.ID] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	if err := s.transactionRepo.InsertTransactions(ctx, missing); err != nil {
		return 0, fmt.Errorf("failed to restore mirror entries: %w", err)
	}
	log.Printf("mirror: restored %d entries", len(missing))

	for _, o := range s.observers {
		o.LedgerChanged(ctx)
	}
	return len(missing), nil
}

func (s *SyncService) apply(ctx context.Context, e repository.OutboxEntry) error {
	switch e.Op {
	case repository.OutboxUpsert:
		var t model.Transaction
		if err := json.Unmarshal([]byte(e.Payload), &t); err != nil {
			return fmt.Errorf("invalid outbox payload: %w", err)
		}
		return s.remote.UpsertTransaction(ctx, t)
	case repository.OutboxDelete:
		return s.remote.DeleteTransaction(ctx, e.TransactionID)
	default:
		return fmt.Errorf("unknown outbox operation %q", e.Op)
	}
}
