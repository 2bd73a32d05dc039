package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"dompet/internal/core"
	"dompet/internal/storage"
)

func newTestLedger(t *testing.T) (*LedgerService, *storage.Repository) {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	categories, err := NewCategoryResolver(repo)
	if err != nil {
		t.Fatalf("NewCategoryResolver() error = %v", err)
	}
	return NewLedgerService(repo, categories, nil), repo
}

func newTestUser(t *testing.T, repo *storage.Repository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "Test User", email, "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

// assertBalanceMatchesLedger checks the lockstep invariant: the stored
// wallet balance must equal the signed sum of the user's transactions.
func assertBalanceMatchesLedger(t *testing.T, repo *storage.Repository, userID int64) {
	t.Helper()
	ctx := context.Background()
	w, err := repo.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	sum, err := repo.SumSigned(ctx, userID, storage.LedgerFilter{})
	if err != nil {
		t.Fatalf("SumSigned() error = %v", err)
	}
	if w.TotalBalanceCents != sum {
		t.Errorf("wallet balance %d diverged from ledger sum %d", w.TotalBalanceCents, sum)
	}
}

func TestCreateTransactionProjectsBalance(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "create@example.com")

	_, balance, err := ledger.CreateTransaction(ctx, u.ID, core.Income, TransactionInput{
		Name:        "salary",
		AmountCents: 500000,
		Category:    "Salary",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction(income) error = %v", err)
	}
	if balance != 500000 {
		t.Errorf("balance after income = %d, want 500000", balance)
	}

	tx, balance, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, TransactionInput{
		Name:        "groceries",
		AmountCents: 12000,
		Category:    "Food",
		Date:        core.NewDate(2024, 5, 3),
	})
	if err != nil {
		t.Fatalf("CreateTransaction(expense) error = %v", err)
	}
	if balance != 488000 {
		t.Errorf("balance after expense = %d, want 488000", balance)
	}
	if tx.CategoryLabel != "food" {
		t.Errorf("category label = %q, want normalized %q", tx.CategoryLabel, "food")
	}

	assertBalanceMatchesLedger(t, repo, u.ID)
}

func TestCreateTransactionValidation(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "invalid@example.com")

	tests := []struct {
		name    string
		input   TransactionInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   TransactionInput{Name: "x", AmountCents: 0, Category: "food", Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   TransactionInput{Name: "x", AmountCents: -100, Category: "food", Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "empty name",
			input:   TransactionInput{Name: "  ", AmountCents: 100, Category: "food", Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrEmptyName,
		},
		{
			name:    "empty category",
			input:   TransactionInput{Name: "x", AmountCents: 100, Category: " ", Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrEmptyCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTransaction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// No rejected input may leave a ledger record behind.
	txs, err := ledger.ListTransactions(ctx, u.ID, core.Expense)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("rejected inputs left %d transactions", len(txs))
	}
}

func TestUpdateTransactionDelta(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "edit@example.com")

	tx, balance, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, TransactionInput{
		Name:        "dinner",
		AmountCents: 1000,
		Category:    "food",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if balance != -1000 {
		t.Fatalf("balance = %d, want -1000", balance)
	}

	newAmount := int64(600)
	_, balance, err = ledger.UpdateTransaction(ctx, u.ID, tx.ID, TransactionPatch{AmountCents: &newAmount})
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if balance != -600 {
		t.Errorf("balance after edit = %d, want -600", balance)
	}
	assertBalanceMatchesLedger(t, repo, u.ID)

	_, balance, err = ledger.DeleteTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if balance != 0 {
		t.Errorf("balance after delete = %d, want 0", balance)
	}
	assertBalanceMatchesLedger(t, repo, u.ID)
}

func TestUpdateTransactionZeroAmountRejected(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "zero@example.com")

	tx, _, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, TransactionInput{
		Name:        "coffee",
		AmountCents: 350,
		Category:    "food",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	zero := int64(0)
	_, _, err = ledger.UpdateTransaction(ctx, u.ID, tx.ID, TransactionPatch{AmountCents: &zero})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("UpdateTransaction(zero) error = %v, want ErrInvalidAmount", err)
	}

	// Record and balance must be untouched.
	got, err := ledger.GetTransaction(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.AmountCents != 350 {
		t.Errorf("amount after rejected edit = %d, want 350", got.AmountCents)
	}
	assertBalanceMatchesLedger(t, repo, u.ID)
}

func TestUpdateTransactionRecategorizes(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "recat@example.com")

	tx, _, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, TransactionInput{
		Name:        "tickets",
		AmountCents: 4000,
		Category:    "travel",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	newCategory := "Entertainment"
	updated, balance, err := ledger.UpdateTransaction(ctx, u.ID, tx.ID, TransactionPatch{Category: &newCategory})
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if updated.CategoryLabel != "entertainment" {
		t.Errorf("category = %q, want %q", updated.CategoryLabel, "entertainment")
	}
	if updated.Direction != core.Expense {
		t.Errorf("direction changed to %q", updated.Direction)
	}
	// Same amount, so the balance is unchanged.
	if balance != -4000 {
		t.Errorf("balance = %d, want -4000", balance)
	}
}

func TestWalletLazyInitialization(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "lazy@example.com")

	// Seed history directly, bypassing the service, so no wallet exists yet.
	cat, err := repo.InsertCategory(ctx, core.Category{Label: "salary", Direction: core.Income})
	if err != nil {
		t.Fatalf("InsertCategory() error = %v", err)
	}
	for _, cents := range []int64{100000, 250000} {
		_, err := repo.InsertTransaction(ctx, core.Transaction{
			UserID:        u.ID,
			CategoryID:    cat.ID,
			CategoryLabel: cat.Label,
			Direction:     core.Income,
			Name:          "pay",
			AmountCents:   cents,
			Date:          core.NewDate(2024, 4, 1),
		})
		if err != nil {
			t.Fatalf("InsertTransaction() error = %v", err)
		}
	}

	w, err := ledger.Wallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("Wallet() error = %v", err)
	}
	if w.TotalBalanceCents != 350000 {
		t.Errorf("lazily initialized balance = %d, want 350000", w.TotalBalanceCents)
	}

	// A second call must not re-create or double-count.
	w, err = ledger.Wallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("Wallet() second call error = %v", err)
	}
	if w.TotalBalanceCents != 350000 {
		t.Errorf("balance after second call = %d, want 350000", w.TotalBalanceCents)
	}
}

func TestRepairWallet(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "repair@example.com")

	_, _, err := ledger.CreateTransaction(ctx, u.ID, core.Income, TransactionInput{
		Name:        "salary",
		AmountCents: 90000,
		Category:    "salary",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	// Corrupt the wallet, then repair from the ledger.
	if err := repo.SetWalletBalance(ctx, u.ID, 123); err != nil {
		t.Fatalf("SetWalletBalance() error = %v", err)
	}
	balance, err := ledger.RepairWallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("RepairWallet() error = %v", err)
	}
	if balance != 90000 {
		t.Errorf("RepairWallet() = %d, want 90000", balance)
	}
	assertBalanceMatchesLedger(t, repo, u.ID)
}

func TestConcurrentMutationsKeepLockstep(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "concurrent@example.com")

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, _, err := ledger.CreateTransaction(ctx, u.ID, core.Expense, TransactionInput{
					Name:        "parallel",
					AmountCents: 100,
					Category:    "misc",
					Date:        core.NewDate(2024, 5, 1),
				})
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent CreateTransaction() error = %v", err)
	}

	w, err := ledger.Wallet(ctx, u.ID)
	if err != nil {
		t.Fatalf("Wallet() error = %v", err)
	}
	if want := int64(-100 * workers * perWorker); w.TotalBalanceCents != want {
		t.Errorf("balance = %d, want %d", w.TotalBalanceCents, want)
	}
	assertBalanceMatchesLedger(t, repo, u.ID)
}

func TestDeleteTransactionCrossUser(t *testing.T) {
	ledger, repo := newTestLedger(t)
	ctx := context.Background()
	owner := newTestUser(t, repo, "del-owner@example.com")
	other := newTestUser(t, repo, "del-other@example.com")

	tx, _, err := ledger.CreateTransaction(ctx, owner.ID, core.Expense, TransactionInput{
		Name:        "rent",
		AmountCents: 80000,
		Category:    "rent",
		Date:        core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	_, _, err = ledger.DeleteTransaction(ctx, other.ID, tx.ID)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user delete error = %v, want ErrNotFound", err)
	}
	assertBalanceMatchesLedger(t, repo, owner.ID)
}
