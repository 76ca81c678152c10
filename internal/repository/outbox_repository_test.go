package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
)

// TestOutboxRepository tests the queue lifecycle.
//
// WHY: Failed pushes must stay queued with their attempt count, and acked
// entries must never be pushed twice.
func TestOutboxRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	first := testutil.MakeID()
	second := testutil.MakeID()

	if err := repo.Enqueue(ctx, repository.OutboxUpsert, first, `{"id":"`+first+`"}`); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := repo.Enqueue(ctx, repository.OutboxDelete, second, ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pending, err := repo.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].TransactionID != first || pending[0].Op != repository.OutboxUpsert {
		t.Errorf("Expected first entry to be upsert of %s, got %+v", first, pending[0])
	}

	if err := repo.Fail(ctx, pending[0].ID, errors.New("connection refused")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := repo.Ack(ctx, pending[1].ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pending, err = repo.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending entry, got %d", len(pending))
	}
	if pending[0].Attempts != 1 || pending[0].LastError != "connection refused" {
		t.Errorf("Expected failure to be recorded, got %+v", pending[0])
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	limited, err := repo.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(limited) != 0 {
		t.Errorf("Expected limit 0 to return nothing, got %d", len(limited))
	}
}
