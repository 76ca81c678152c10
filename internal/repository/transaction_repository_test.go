package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

// TestTransactionRepository_ListTransactions tests ledger ordering.
//
// WHY: The position engine replays entries in the order the store returns them.
// Entries sharing a date must keep insertion order or same-day BUY/SELL pairs
// are applied backwards.
func TestTransactionRepository_ListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty slice when ledger is empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if txs == nil || len(txs) != 0 {
			t.Errorf("Expected empty non-nil slice, got %v", txs)
		}
	})

	t.Run("orders by date then insertion order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		late := testutil.CreateBuy(t, db, "VALE3", "2024-03-01", 10, 60)
		sameDayBuy := testutil.CreateBuy(t, db, "PETR4", "2024-01-10", 100, 30)
		sameDaySell := testutil.CreateSell(t, db, "PETR4", "2024-01-10", 40, 31)

		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(txs) != 3 {
			t.Fatalf("Expected 3 transactions, got %d", len(txs))
		}

		want := []string{sameDayBuy.ID, sameDaySell.ID, late.ID}
		for i, id := range want {
			if txs[i].ID != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, txs[i].ID)
			}
		}
	})

	t.Run("round-trips decimals exactly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		testutil.NewTransaction("BTC").WithQuantity(0.00012345).WithUnitPrice(350123.45).WithCosts(0.1).Build(t, db)

		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !txs[0].Quantity.Equal(decimal.RequireFromString("0.00012345")) {
			t.Errorf("Expected quantity 0.00012345, got %s", txs[0].Quantity)
		}
		if !txs[0].UnitPrice.Equal(decimal.RequireFromString("350123.45")) {
			t.Errorf("Expected price 350123.45, got %s", txs[0].UnitPrice)
		}
	})
}

func TestTransactionRepository_ListTransactionsByTicker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	testutil.CreatePetr4Ledger(t, db)
	testutil.CreateBuy(t, db, "VALE3", "2024-01-01", 10, 60)

	txs, err := repo.ListTransactionsByTicker(ctx, "PETR4")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("Expected 3 PETR4 transactions, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.Ticker != "PETR4" {
			t.Errorf("Expected only PETR4, got %s", tx.Ticker)
		}
	}
}

func TestTransactionRepository_GetTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		created := testutil.CreateDividend(t, db, "ITSA4", "2024-05-02", 17)

		got, err := repo.GetTransaction(ctx, created.ID)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got.Kind != model.KindDividend {
			t.Errorf("Expected kind DIVIDEND, got %s", got.Kind)
		}
		if got.Seq != created.Seq {
			t.Errorf("Expected seq %d, got %d", created.Seq, got.Seq)
		}
		if !got.Date.Equal(created.Date) {
			t.Errorf("Expected date %s, got %s", created.Date, got.Date)
		}
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		_, err := repo.GetTransaction(ctx, testutil.MakeID())
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionRepository_InsertTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	first := testutil.NewTransaction("PETR4").Model()
	second := testutil.NewTransaction("PETR4").Model()

	if err := repo.InsertTransaction(ctx, &first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := repo.InsertTransaction(ctx, &second); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Seq <= first.Seq {
		t.Errorf("Expected increasing seq, got %d then %d", first.Seq, second.Seq)
	}

	dup := testutil.NewTransaction("PETR4").WithID(first.ID).Model()
	if err := repo.InsertTransaction(ctx, &dup); err == nil {
		t.Error("Expected error for duplicate id")
	}
}

func TestTransactionRepository_InsertTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts all in order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		batch := []model.Transaction{
			testutil.NewTransaction("PETR4").Model(),
			testutil.NewTransaction("VALE3").Model(),
		}
		if err := repo.InsertTransactions(ctx, batch); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if batch[0].Seq == 0 || batch[1].Seq <= batch[0].Seq {
			t.Errorf("Expected seq to be assigned in order, got %d, %d", batch[0].Seq, batch[1].Seq)
		}
	})

	t.Run("failure inserts nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		first := testutil.NewTransaction("PETR4").Model()
		dup := testutil.NewTransaction("VALE3").WithID(first.ID).Model()

		if err := repo.InsertTransactions(ctx, []model.Transaction{first, dup}); err == nil {
			t.Fatal("Expected duplicate id to fail the batch")
		}

		txs, err := repo.ListTransactions(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(txs) != 0 {
			t.Errorf("Expected empty ledger after failed batch, got %d entries", len(txs))
		}
	})
}

func TestTransactionRepository_DeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("removes entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		created := testutil.CreateBuy(t, db, "PETR4", "2024-01-10", 100, 30)

		if err := repo.DeleteTransaction(ctx, created.ID); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := repo.GetTransaction(ctx, created.ID); !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected entry to be gone, got %v", err)
		}
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		err := repo.DeleteTransaction(ctx, testutil.MakeID())
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("rolled back transaction keeps entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		created := testutil.CreateBuy(t, db, "PETR4", "2024-01-10", 100, 30)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("Failed to begin: %v", err)
		}
		if err := repo.WithTx(tx).DeleteTransaction(ctx, created.ID); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Failed to rollback: %v", err)
		}

		if _, err := repo.GetTransaction(ctx, created.ID); err != nil {
			t.Errorf("Expected entry to survive rollback, got %v", err)
		}
	})
}

func TestTransactionRepository_ListTickers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)
	ctx := context.Background()

	testutil.CreateBuy(t, db, "PETR4", "2024-01-10", 1, 30)
	testutil.CreateBuy(t, db, "PETR4", "2024-01-11", 1, 30)
	testutil.CreateBuy(t, db, "PETR3", "2024-01-10", 1, 30)
	testutil.CreateBuy(t, db, "VALE3", "2024-01-10", 1, 60)

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"PETR3", "PETR4", "VALE3"}},
		{"pe", []string{"PETR3", "PETR4"}},
		{"PETR4", []string{"PETR4"}},
		{"%", []string{}},
		{"X", []string{}},
	}

	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			got, err := repo.ListTickers(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
